package parser

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/lawdesk/internal/doctree"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// TextParser handles plain text files. Lines are kept as they are; the
// normalizer decides which line breaks are structural. Files that are not
// valid UTF-8 are decoded as EUC-KR (CP949), which older statute exports use.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))
	if !utf8.Valid(data) {
		if decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data); err == nil {
			data = decoded
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := doctree.NewBuilder(baseTitle(filename))
	for scanner.Scan() {
		b.Paragraph(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.Tree(), nil
}
