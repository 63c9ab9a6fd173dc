package preview

import (
	"bytes"
	"context"
	_ "embed"
	"io"

	"github.com/a-h/templ"

	"github.com/conneroisu/a11ytabs/internal/dom"
)

//go:embed client.js
var clientJS string

// clientConfig is handed to client.js as a JSON script element.
type clientConfig struct {
	Socket       string `json:"socket"`
	Health       string `json:"health"`
	KeyAttribute string `json:"keyAttribute"`
	Container    string `json:"container"`
}

const configElementID = "a11ytabs-config"

// clientScript renders the configuration element and the client runtime.
func clientScript(cfg clientConfig) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := templ.JSONScript(configElementID, cfg).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<script>"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, clientJS); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</script>")
		return err
	})
}

// Page renders doc with node keys stamped and script inserted at the end of
// the body.
func Page(doc *dom.Document, script templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := doc.Render(&buf, dom.RenderOptions{StampKeys: true}); err != nil {
			return err
		}
		markup := buf.Bytes()

		// html.Render always closes the body.
		at := bytes.LastIndex(markup, []byte("</body>"))
		if at < 0 {
			at = len(markup)
		}
		if _, err := w.Write(markup[:at]); err != nil {
			return err
		}
		if err := script.Render(ctx, w); err != nil {
			return err
		}
		_, err := w.Write(markup[at:])
		return err
	})
}
