// Package spreadsheet provides a tool for reading and writing tabular
// data as XLSX workbooks or CSV files.
package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/tool"
)

// Options configure the spreadsheet tool.
type Options struct {
	// BaseDir confines all file access; paths escaping it are rejected.
	BaseDir string

	// Sheet is the worksheet name used for XLSX files.
	Sheet string
}

type sheetArgs struct {
	Action string     `json:"action" jsonschema:"description=Either 'read' or 'write'"`
	Path   string     `json:"path" jsonschema:"description=File path relative to the working directory, .xlsx or .csv"`
	Rows   [][]string `json:"rows,omitempty" jsonschema:"description=Rows to write, first row is the header"`
}

// New creates the spreadsheet tool.
func New(optFns ...func(o *Options)) tool.Tool {
	opts := Options{
		BaseDir: ".",
		Sheet:   "Sheet1",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewFunctionToolFromStruct(
		"spreadsheet",
		"Read or write tabular data in XLSX or CSV files",
		sheetArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			action, _ := args["action"].(string)
			relPath, _ := args["path"].(string)
			path, err := resolvePath(opts.BaseDir, relPath)
			if err != nil {
				return nil, err
			}
			switch action {
			case "read":
				rows, err := readRows(path, opts.Sheet)
				if err != nil {
					return nil, err
				}
				return map[string]any{"rows": rows}, nil
			case "write":
				rows := decodeRows(args["rows"])
				if err := writeRows(path, opts.Sheet, rows); err != nil {
					return nil, err
				}
				return map[string]any{"path": relPath, "rows_written": len(rows)}, nil
			default:
				return nil, fmt.Errorf("unknown action %q, expected 'read' or 'write'", action)
			}
		},
	)
}

func resolvePath(baseDir, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, rel))
	if err != nil {
		return "", err
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the working directory", rel)
	}
	return abs, nil
}

func decodeRows(v any) [][]string {
	raw, _ := v.([]any)
	rows := make([][]string, 0, len(raw))
	for _, r := range raw {
		cells, _ := r.([]any)
		row := make([]string, 0, len(cells))
		for _, c := range cells {
			row = append(row, fmt.Sprintf("%v", c))
		}
		rows = append(rows, row)
	}
	return rows
}

func readRows(path, sheet string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return csv.NewReader(f).ReadAll()
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return wb.GetRows(sheet)
}

func writeRows(path, sheet string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		return w.Error()
	}

	wb := excelize.NewFile()
	defer wb.Close()
	if sheet != "Sheet1" {
		if err := wb.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return wb.SaveAs(path)
}
