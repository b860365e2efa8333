package textract

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// readTXT decodes UTF-8 (BOM optional) and BOM-marked UTF-16. Anything else
// that is not valid UTF-8 is read as Windows-1252.
func readTXT(data []byte) Result {
	res := Result{Pages: 1, Method: MethodText}

	hasUTF16BOM := bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE)
	if hasUTF16BOM || utf8.Valid(bytes.TrimPrefix(data, bomUTF8)) {
		dec := xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err == nil {
			res.Text = string(out)
			return res
		}
		res.Warnings = append(res.Warnings, "utf decode: "+err.Error())
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		res.Warnings = append(res.Warnings, "cp1252 decode: "+err.Error())
		res.Text = string(bytes.ToValidUTF8(data, []byte("�")))
		return res
	}
	res.Warnings = append(res.Warnings, "decoded as windows-1252")
	res.Text = string(out)
	return res
}
