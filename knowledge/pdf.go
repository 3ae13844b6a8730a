package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFURLSource loads a PDF from an HTTP URL, extracts its text and
// chunks it with a Splitter.
type PDFURLSource struct {
	url        string
	splitter   *Splitter
	httpClient *http.Client
}

// PDFURLSourceOptions configure a PDFURLSource.
type PDFURLSourceOptions struct {
	Splitter   *Splitter
	HTTPClient *http.Client
}

// NewPDFURLSource creates a source for the given URL.
func NewPDFURLSource(url string, optFns ...func(o *PDFURLSourceOptions)) *PDFURLSource {
	opts := PDFURLSourceOptions{
		Splitter:   NewSplitter(0, 0),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &PDFURLSource{
		url:        url,
		splitter:   opts.Splitter,
		httpClient: opts.HTTPClient,
	}
}

// Name implements the Source interface.
func (s *PDFURLSource) Name() string { return s.url }

// Load implements the Source interface.
func (s *PDFURLSource) Load(ctx context.Context) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf %q: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch pdf %q: status %d", s.url, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	text, err := ExtractPDFText(raw)
	if err != nil {
		return nil, fmt.Errorf("parse pdf %q: %w", s.url, err)
	}

	chunks := s.splitter.Split(text)
	docs := make([]Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, Document{
			Content: chunk,
			Metadata: map[string]string{
				"source": s.url,
				"chunk":  strconv.Itoa(i),
			},
		})
	}
	return docs, nil
}

// ExtractPDFText extracts plain text from PDF bytes, one line per text row.
func ExtractPDFText(raw []byte) (string, error) {
	reader := bytes.NewReader(raw)
	r, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for _, word := range row.Content {
				buf.WriteString(word.S)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
