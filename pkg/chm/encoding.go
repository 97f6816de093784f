package chm

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// EnglishLCID is the locale compiled as UTF-8 without transcoding
const EnglishLCID = 1033

// Stage is one step of the encoding chain applied to every output line
type Stage interface {
	Name() string
	Encode(line []byte) ([]byte, error)
}

// ASCIISubstitution replaces typographic punctuation the help compiler
// renders poorly with plain ASCII
type ASCIISubstitution struct{}

var asciiReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"‚", ",",
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"–", "-",
	"—", "--",
	"…", "...",
	" ", "&nbsp;",
	"™", "&trade;",
)

// Name returns "ascii"
func (ASCIISubstitution) Name() string { return "ascii" }

// Encode replaces the characters in the substitution table
func (ASCIISubstitution) Encode(line []byte) ([]byte, error) {
	if isASCII(line) {
		return line, nil
	}
	return []byte(asciiReplacer.Replace(string(line))), nil
}

// EntitySubstitution resolves named HTML entities to characters so the
// transcoder can map them into the target codepage. The five XML entities
// are kept.
type EntitySubstitution struct{}

var entityPattern = regexp.MustCompile(`&[A-Za-z][A-Za-z0-9]*;`)

var xmlEntities = map[string]bool{
	"&amp;":  true,
	"&lt;":   true,
	"&gt;":   true,
	"&quot;": true,
	"&apos;": true,
}

// Name returns "entity"
func (EntitySubstitution) Name() string { return "entity" }

// Encode replaces known named entities, leaving unknown ones untouched
func (EntitySubstitution) Encode(line []byte) ([]byte, error) {
	if bytes.IndexByte(line, '&') < 0 {
		return line, nil
	}
	return entityPattern.ReplaceAllFunc(line, func(m []byte) []byte {
		if xmlEntities[string(m)] {
			return m
		}
		s := html.UnescapeString(string(m))
		if s == string(m) {
			return m
		}
		return []byte(s)
	}), nil
}

// CharsetSubstitution rewrites charset and XML encoding declarations to the
// output charset
type CharsetSubstitution struct {
	Charset string
}

var (
	charsetPattern  = regexp.MustCompile(`(?i)(charset\s*=\s*["']?)[A-Za-z0-9_\-]+`)
	encodingPattern = regexp.MustCompile(`(?i)(<\?xml[^>]*encoding\s*=\s*["'])[A-Za-z0-9_\-]+`)
)

// Name returns "charset"
func (c CharsetSubstitution) Name() string { return "charset" }

// Encode rewrites the declarations found in line
func (c CharsetSubstitution) Encode(line []byte) ([]byte, error) {
	if c.Charset == "" {
		return line, nil
	}
	repl := []byte("${1}" + c.Charset)
	line = charsetPattern.ReplaceAll(line, repl)
	return encodingPattern.ReplaceAll(line, repl), nil
}

// Transcoder converts UTF-8 text to a Windows codepage. Characters outside
// the codepage become numeric character references.
type Transcoder struct {
	Codepage int
	encoder  *encoding.Encoder
}

// NewTranscoder creates a transcoder for codepage
func NewTranscoder(codepage int) (*Transcoder, error) {
	enc, err := CodepageEncoding(codepage)
	if err != nil {
		return nil, err
	}
	return &Transcoder{
		Codepage: codepage,
		encoder:  encoding.HTMLEscapeUnsupported(enc.NewEncoder()),
	}, nil
}

// Name returns "transcode"
func (t *Transcoder) Name() string { return "transcode" }

// Encode transcodes line
func (t *Transcoder) Encode(line []byte) ([]byte, error) {
	if isASCII(line) {
		return line, nil
	}
	out, err := t.encoder.Bytes(line)
	if err != nil {
		return nil, fmt.Errorf("transcode to codepage %d: %w", t.Codepage, err)
	}
	return out, nil
}

// CodepageEncoding returns the text encoding of a Windows codepage
func CodepageEncoding(codepage int) (encoding.Encoding, error) {
	switch codepage {
	case UTF8Codepage:
		return unicode.UTF8, nil
	case 874:
		return charmap.Windows874, nil
	case 932:
		return japanese.ShiftJIS, nil
	case 936:
		return simplifiedchinese.GBK, nil
	case 949:
		return korean.EUCKR, nil
	case 950:
		return traditionalchinese.Big5, nil
	case 1250:
		return charmap.Windows1250, nil
	case 1251:
		return charmap.Windows1251, nil
	case 1252:
		return charmap.Windows1252, nil
	case 1253:
		return charmap.Windows1253, nil
	case 1254:
		return charmap.Windows1254, nil
	case 1255:
		return charmap.Windows1255, nil
	case 1256:
		return charmap.Windows1256, nil
	case 1257:
		return charmap.Windows1257, nil
	case 1258:
		return charmap.Windows1258, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedCodepage, codepage)
}

// Encoding is the ordered stage chain for one locale
type Encoding struct {
	language Language
	codepage int
	stages   []Stage
}

// NewEncoding builds the chain for lcid. English runs only the ASCII stage
// and stays UTF-8; every other locale runs ASCII, entity, charset and
// transcode in that order and ends in the codepage of the language table.
func NewEncoding(lcid int, table *LanguageTable) (*Encoding, error) {
	if table == nil {
		table = DefaultLanguageTable()
	}
	lang, ok := table.Lookup(lcid)
	if !ok {
		if lcid != EnglishLCID {
			return nil, fmt.Errorf("%w: %d", ErrUnknownLCID, lcid)
		}
		lang = Language{LCID: EnglishLCID, Codepage: UTF8Codepage, Name: "0x409 English (United States)", Charset: "utf-8"}
	}

	if lcid == EnglishLCID {
		return &Encoding{
			language: lang,
			codepage: UTF8Codepage,
			stages:   []Stage{ASCIISubstitution{}},
		}, nil
	}

	transcoder, err := NewTranscoder(lang.Codepage)
	if err != nil {
		return nil, fmt.Errorf("language %d: %w", lcid, err)
	}
	return &Encoding{
		language: lang,
		codepage: lang.Codepage,
		stages: []Stage{
			ASCIISubstitution{},
			EntitySubstitution{},
			CharsetSubstitution{Charset: lang.Charset},
			transcoder,
		},
	}, nil
}

// Language returns the locale the chain was built for
func (e *Encoding) Language() Language {
	return e.language
}

// Codepage returns the output codepage
func (e *Encoding) Codepage() int {
	return e.codepage
}

// Stages returns the chain in execution order
func (e *Encoding) Stages() []Stage {
	return append([]Stage(nil), e.stages...)
}

// EncodeLine runs line through every stage
func (e *Encoding) EncodeLine(line []byte) ([]byte, error) {
	var err error
	for _, s := range e.stages {
		line, err = s.Encode(line)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", s.Name(), err)
		}
	}
	return line, nil
}

// Encode runs every line of data through the chain, keeping line endings
func (e *Encoding) Encode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data))
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		encoded, err := e.EncodeLine(line)
		if err != nil {
			return nil, err
		}
		out.Write(encoded)
	}
	return out.Bytes(), nil
}

// EncodeFile encodes src into dst. src and dst may be the same file.
func (e *Encoding) EncodeFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	encoded, err := e.Encode(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", src, err)
	}
	return utils.WriteFileAtomic(dst, encoded)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
