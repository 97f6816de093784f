// Package chm converts built topics for the HTML Help 1.x compiler and
// writes its project, contents and index files
package chm

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// UTF8Codepage is the output codepage of English builds
const UTF8Codepage = 65001

// Language describes how topics of one locale are encoded
type Language struct {
	LCID     int
	Codepage int
	// Name is the value of the Language line of the project file
	Name    string
	Charset string
}

// LanguageTable maps LCIDs to languages
type LanguageTable struct {
	languages map[int]Language
}

// NewLanguageTable creates a table holding languages
func NewLanguageTable(languages ...Language) *LanguageTable {
	t := &LanguageTable{languages: make(map[int]Language, len(languages))}
	for _, l := range languages {
		t.Set(l)
	}
	return t
}

// DefaultLanguageTable returns the built-in locales
func DefaultLanguageTable() *LanguageTable {
	return NewLanguageTable(
		Language{1025, 1256, "0x401 Arabic (Saudi Arabia)", "windows-1256"},
		Language{1028, 950, "0x404 Chinese (Taiwan)", "big5"},
		Language{1029, 1250, "0x405 Czech", "windows-1250"},
		Language{1030, 1252, "0x406 Danish", "windows-1252"},
		Language{1031, 1252, "0x407 German (Germany)", "windows-1252"},
		Language{1032, 1253, "0x408 Greek", "windows-1253"},
		Language{1033, UTF8Codepage, "0x409 English (United States)", "utf-8"},
		Language{1034, 1252, "0x40a Spanish (Traditional Sort)", "windows-1252"},
		Language{1035, 1252, "0x40b Finnish", "windows-1252"},
		Language{1036, 1252, "0x40c French (France)", "windows-1252"},
		Language{1037, 1255, "0x40d Hebrew", "windows-1255"},
		Language{1038, 1250, "0x40e Hungarian", "windows-1250"},
		Language{1040, 1252, "0x410 Italian (Italy)", "windows-1252"},
		Language{1041, 932, "0x411 Japanese", "shift_jis"},
		Language{1042, 949, "0x412 Korean", "ks_c_5601-1987"},
		Language{1043, 1252, "0x413 Dutch (Netherlands)", "windows-1252"},
		Language{1044, 1252, "0x414 Norwegian (Bokmal)", "windows-1252"},
		Language{1045, 1250, "0x415 Polish", "windows-1250"},
		Language{1046, 1252, "0x416 Portuguese (Brazil)", "windows-1252"},
		Language{1049, 1251, "0x419 Russian", "windows-1251"},
		Language{1053, 1252, "0x41d Swedish", "windows-1252"},
		Language{1054, 874, "0x41e Thai", "windows-874"},
		Language{1055, 1254, "0x41f Turkish", "windows-1254"},
		Language{1058, 1251, "0x422 Ukrainian", "windows-1251"},
		Language{1066, 1258, "0x42a Vietnamese", "windows-1258"},
		Language{2052, 936, "0x804 Chinese (PRC)", "gb2312"},
		Language{2070, 1252, "0x816 Portuguese (Portugal)", "windows-1252"},
		Language{3082, 1252, "0xc0a Spanish (International Sort)", "windows-1252"},
	)
}

// Lookup returns the language of lcid
func (t *LanguageTable) Lookup(lcid int) (Language, bool) {
	l, ok := t.languages[lcid]
	return l, ok
}

// Set adds or replaces a language
func (t *LanguageTable) Set(l Language) {
	t.languages[l.LCID] = l
}

// LCIDs returns the known LCIDs in ascending order
func (t *LanguageTable) LCIDs() []int {
	ids := make([]int, 0, len(t.languages))
	for id := range t.languages {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of languages
func (t *LanguageTable) Len() int {
	return len(t.languages)
}

// Config is the content of a chmBuilder.config file
type Config struct {
	Languages *LanguageTable
	// HHPTemplate holds the project file lines with {0}..{3} placeholders
	HHPTemplate []string
}

// DefaultHHPTemplate is used when the configuration has no template.
// {0} help name, {1} default topic, {2} language, {3} title.
var DefaultHHPTemplate = []string{
	"[OPTIONS]",
	"Compatibility=1.1 or later",
	"Compiled file={0}.chm",
	"Contents file={0}.hhc",
	"Index file={0}.hhk",
	"Default Window=Main",
	"Default topic={1}",
	"Display compile progress=No",
	"Error log file={0}.log",
	"Full-text search=Yes",
	"Language={2}",
	"Title={3}",
	"",
	"[WINDOWS]",
	`Main="{3}","{0}.hhc","{0}.hhk","{1}","{1}",,,,,0x62520,222,0x101846,[10,10,780,560],,,,,,,0`,
	"",
	"[FILES]",
	"icons\\*.gif",
	"art\\*.gif",
	"media\\*.gif",
	"scripts\\*.js",
	"styles\\*.css",
	"html\\*.htm",
	"",
	"[INFOTYPES]",
}

// DefaultConfig returns the built-in languages and project template
func DefaultConfig() *Config {
	return &Config{
		Languages:   DefaultLanguageTable(),
		HHPTemplate: append([]string(nil), DefaultHHPTemplate...),
	}
}

type xmlConfig struct {
	XMLName   xml.Name `xml:"configuration"`
	Lines     []string `xml:"hhpTemplate>line"`
	Languages []struct {
		ID       string `xml:"id,attr"`
		Codepage string `xml:"codepage,attr"`
		Name     string `xml:"name,attr"`
		Charset  string `xml:"charset,attr"`
	} `xml:"languages>language"`
}

// LoadConfig reads a chmBuilder.config file. Languages it lists override the
// built-in ones; a missing template keeps the default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses chmBuilder.config content
func ParseConfig(data []byte) (*Config, error) {
	var raw xmlConfig
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse chm configuration: %w", err)
	}

	cfg := DefaultConfig()
	if len(raw.Lines) > 0 {
		cfg.HHPTemplate = raw.Lines
	}
	for _, l := range raw.Languages {
		lcid, err := strconv.Atoi(strings.TrimSpace(l.ID))
		if err != nil {
			return nil, fmt.Errorf("language %q: invalid id", l.ID)
		}
		codepage, err := strconv.Atoi(strings.TrimSpace(l.Codepage))
		if err != nil {
			return nil, fmt.Errorf("language %d: invalid codepage %q", lcid, l.Codepage)
		}
		cfg.Languages.Set(Language{
			LCID:     lcid,
			Codepage: codepage,
			Name:     l.Name,
			Charset:  strings.ToLower(l.Charset),
		})
	}
	return cfg, nil
}
