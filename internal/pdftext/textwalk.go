package pdftext

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// kerningSpace is the TJ displacement (thousandths of text space) beyond which
// a word gap is assumed.
const kerningSpace = -200

// maxFormDepth bounds nested form XObjects.
const maxFormDepth = 8

// textWalker collects the text-showing operators (Tj, TJ, ', ") of a page,
// decoding strings through the selected font's encoding. Line breaks are
// emitted for T*, Td/TD with a vertical offset, Tm and ET. Form XObjects
// invoked with Do are walked with their own resources.
type textWalker struct {
	out strings.Builder
	enc pdf.TextEncoding
}

func pageText(p pdf.Page) string {
	w := &textWalker{}
	res := p.Resources()
	contents := p.V.Key("Contents")
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			w.walk(contents.Index(i), res, 0)
		}
	} else {
		w.walk(contents, res, 0)
	}
	return w.out.String()
}

func (w *textWalker) walk(strm, res pdf.Value, depth int) {
	fonts := map[string]pdf.TextEncoding{}
	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if len(args) > 0 {
				w.enc = fontEncoding(fonts, res, args[0].Name())
			}
		case "Tj":
			if n := len(args); n > 0 {
				w.show(args[n-1])
			}
		case "'", "\"":
			w.newline()
			if n := len(args); n > 0 {
				w.show(args[n-1])
			}
		case "TJ":
			if n := len(args); n > 0 && args[n-1].Kind() == pdf.Array {
				w.showArray(args[n-1])
			}
		case "T*", "Tm", "ET":
			w.newline()
		case "Td", "TD":
			if len(args) == 2 && args[1].Float64() != 0 {
				w.newline()
			}
		case "Do":
			if len(args) > 0 && depth < maxFormDepth {
				w.form(res, args[0].Name(), depth)
			}
		}
	})
}

func (w *textWalker) form(res pdf.Value, name string, depth int) {
	xobj := res.Key("XObject").Key(name)
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return
	}
	formRes := xobj.Key("Resources")
	if formRes.IsNull() {
		formRes = res
	}
	saved := w.enc
	w.walk(xobj, formRes, depth+1)
	w.enc = saved
}

func fontEncoding(cache map[string]pdf.TextEncoding, res pdf.Value, name string) pdf.TextEncoding {
	if enc, ok := cache[name]; ok {
		return enc
	}
	f := pdf.Font{V: res.Key("Font").Key(name)}
	enc := f.Encoder()
	cache[name] = enc
	return enc
}

func (w *textWalker) show(v pdf.Value) {
	if v.Kind() != pdf.String {
		return
	}
	raw := v.RawString()
	if w.enc == nil {
		w.out.WriteString(raw)
		return
	}
	w.out.WriteString(w.enc.Decode(raw))
}

func (w *textWalker) showArray(arr pdf.Value) {
	for i := 0; i < arr.Len(); i++ {
		item := arr.Index(i)
		switch item.Kind() {
		case pdf.String:
			w.show(item)
		case pdf.Integer, pdf.Real:
			if item.Float64() < kerningSpace {
				w.space()
			}
		}
	}
}

func (w *textWalker) space() {
	s := w.out.String()
	if s != "" && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
		w.out.WriteByte(' ')
	}
}

func (w *textWalker) newline() {
	s := w.out.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		w.out.WriteByte('\n')
	}
}
