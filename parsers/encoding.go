package parsers

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// literalRepairs fixes known garbled tokens, most specific first.
// Three classes of damage show up in partner exports:
//   - UTF-8 decoded as Latin-1 ("Ã©" where "é" was meant)
//   - the replacement character where an accented byte was lost ("R�f�rence")
//   - the accented character dropped entirely ("Expditeur")
var literalRepairs = []struct{ from, to string }{
	// multi-word fix where every accent was lost to spaces
	{"T te de r seau", "Tête de réseau"},

	// replacement-character tokens
	{"R�f�rence", "Référence"},
	{"r�f�rence", "référence"},
	{"N� de Compte", "N° de Compte"},
	{"D�bit", "Débit"},
	{"Cr�dit", "Crédit"},
	{"Op�ration", "Opération"},
	{"T�l�phone", "Téléphone"},
	{"Exp�diteur", "Expéditeur"},
	{"B�n�ficiaire", "Bénéficiaire"},
	{"Num�ro", "Numéro"},
	{"�tat", "État"},

	// dropped-accent tokens
	{"Rfrence", "Référence"},
	{"rfrence", "référence"},
	{"Dbit", "Débit"},
	{"Crdit", "Crédit"},
	{"Tlphone", "Téléphone"},
	{"Bnficiaire", "Bénéficiaire"},
	{"Numro", "Numéro"},

	// UTF-8 read as Latin-1
	{"NÂ°", "N°"},
	{"Ã©", "é"},
	{"Ã¨", "è"},
	{"Ãª", "ê"},
	{"Ã«", "ë"},
	{"Ã¢", "â"},
	{"Ã´", "ô"},
	{"Ã®", "î"},
	{"Ã¯", "ï"},
	{"Ã§", "ç"},
	{"Ã¹", "ù"},
	{"Ã»", "û"},
	{"Ã‰", "É"},
	{"Ã€", "À"},
	{"Ã ", "à"},
}

// patternRepairs reconstructs word classes where a single accented letter was
// dropped. Each pattern requires the character before the suffix to not be the
// accent itself, so already-correct spellings never match and reapplying the
// repair is a no-op.
var patternRepairs = []struct {
	re *regexp.Regexp
	to string
}{
	{regexp.MustCompile(`(^|[^é])diteur`), "${1}éditeur"},
	{regexp.MustCompile(`(^|[^é])pration`), "${1}pération"},
	{regexp.MustCompile(`(^|[^é])nficiaire`), "${1}néficiaire"},
}

// RepairEncoding applies best-effort mojibake and dropped-accent repair.
// Unmatched text passes through unchanged; the function never fails and is
// idempotent.
func RepairEncoding(s string) string {
	if s == "" {
		return s
	}
	for _, r := range literalRepairs {
		if strings.Contains(s, r.from) {
			s = strings.ReplaceAll(s, r.from, r.to)
		}
	}
	for _, p := range patternRepairs {
		s = p.re.ReplaceAllString(s, p.to)
	}
	return s
}

// DecodeReader wraps r so the returned reader yields UTF-8 text, sniffing the
// charset from the first 2KB. UTF-8, Windows-1252 and ISO-8859-1 come up in
// practice; anything else is assumed to be UTF-8 and left alone.
func DecodeReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)

	peek, _ := br.Peek(2048)
	cs := "utf-8"
	if len(peek) > 0 {
		if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
			cs = strings.ToLower(det.Charset)
		}
	}

	switch cs {
	case "windows-1252", "cp1252":
		return transform.NewReader(br, charmap.Windows1252.NewDecoder())
	case "iso-8859-1", "latin1":
		return transform.NewReader(br, charmap.ISO8859_1.NewDecoder())
	default:
		return br
	}
}
