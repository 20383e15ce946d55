package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/sambeau/jsxplay/editor"
	"github.com/sambeau/jsxplay/pkg/jsx/jsx"
)

var pageTemplates = template.Must(template.New("index").Funcs(template.FuncMap{
	// Palette docs are rendered from our own markdown
	"trusted": func(s string) template.HTML { return template.HTML(s) },
}).Parse(indexTemplate))

func init() {
	template.Must(pageTemplates.New("preview").Parse(previewTemplate))
}

type pageData struct {
	Code       string
	Preview    editor.Preview
	PreviewSrc template.HTML
	Cursor     template.CSS
	Swatches   []string
	Palette    []editor.PaletteEntry
	Insertions []int
	Warning    string
	State      string
	Painting   bool
	DialogOpen bool
}

func (s *Server) pageData() (pageData, error) {
	palette, err := editor.Palette()
	if err != nil {
		return pageData{}, err
	}
	code := s.session.Code()
	preview := s.session.Render()
	warning, _ := s.session.Warning()

	// One insertion point before the first root and one after each root
	insertions := make([]int, len(jsx.Roots(code))+1)
	for i := range insertions {
		insertions[i] = i
	}

	return pageData{
		Code:       code,
		Preview:    preview,
		PreviewSrc: template.HTML(preview.HTML),
		Cursor:     template.CSS(preview.Cursor),
		Swatches:   editor.Swatches,
		Palette:    palette,
		Insertions: insertions,
		Warning:    warning,
		State:      s.session.State().String(),
		Painting:   s.session.Painting(),
		DialogOpen: s.session.DialogOpen(),
	}, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "index")
}

// handlePreview serves the rendered preview on its own.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "preview")
}

func (s *Server) renderPage(w http.ResponseWriter, name string) {
	data, err := s.pageData()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logError("rendering %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

const previewTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>jsxplay preview</title></head>
<body{{if .Cursor}} style="cursor: {{.Cursor}}"{{end}}>
{{if .Preview.Error}}<div class="preview-error" role="alert">
<p>Something went wrong rendering the preview.</p>
<pre>{{.Preview.Error}}</pre>
<a href="/preview">Try again</a>
</div>{{else}}{{.PreviewSrc}}{{end}}
</body>
</html>
`

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>jsxplay</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; display: grid; grid-template-columns: 220px 1fr 1fr; height: 100vh; }
  aside, main, section { padding: 12px; overflow: auto; }
  aside { border-right: 1px solid #ddd; }
  section { border-left: 1px solid #ddd; }
  textarea { width: 100%; height: 70vh; font-family: ui-monospace, monospace; font-size: 13px; }
  .palette-item { border: 1px solid #ccc; border-radius: 4px; padding: 6px; margin-bottom: 8px; cursor: grab; }
  .insertion { height: 10px; margin: 4px 0; border: 1px dashed transparent; }
  .insertion.over { border-color: #1976d2; }
  .warning { background: #fff4e5; border: 1px solid #ff9800; padding: 8px; margin-bottom: 8px; }
  .preview-error { background: #fdecea; border: 1px solid #f44336; padding: 8px; }
  .swatches button { width: 24px; height: 24px; border: 1px solid #999; margin: 2px; }
</style>
</head>
<body{{if .Cursor}} style="cursor: {{.Cursor}}"{{end}}>
<aside>
  <h3>Components</h3>
  {{range .Palette}}<div class="palette-item" draggable="true" data-kind="{{.Kind}}" title="{{.Label}}">
    <strong>{{.Label}}</strong>
    <div class="doc">{{trusted .DocHTML}}</div>
  </div>{{end}}
  <h3>Paint</h3>
  <div class="swatches">
    {{range $c := .Swatches}}<button type="button" data-color="{{$c}}" style="background: {{$c}}"></button>{{end}}
  </div>
  <label><input type="radio" name="kind" value="background" checked> Background</label>
  <label><input type="radio" name="kind" value="text"> Text</label>
  <p><button type="button" id="undo">Undo</button> <button type="button" id="reset">Reset</button> <button type="button" id="snapshot">Save snapshot</button></p>
</aside>
<main id="preview-pane" data-state="{{.State}}">
  {{if .Warning}}<div class="warning" role="alert">{{.Warning}}</div>{{end}}
  {{range .Insertions}}<div class="insertion" data-index="{{.}}"></div>{{end}}
  {{if .Preview.Error}}<div class="preview-error" role="alert">
    <p>Something went wrong rendering the preview.</p>
    <pre>{{.Preview.Error}}</pre>
    <button type="button" onclick="location.reload()">Try again</button>
  </div>{{else}}<div id="preview">{{.PreviewSrc}}</div>{{end}}
  {{if .Preview.Log}}<pre class="log">{{range .Preview.Log}}{{.}}
{{end}}</pre>{{end}}
</main>
<section>
  <h3>Source</h3>
  <textarea id="code" spellcheck="false">{{.Code}}</textarea>
</section>
<script>
(function() {
  async function call(path, body) {
    const resp = await fetch(path, {
      method: path === '/api/code' ? 'PUT' : 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(body || {})
    });
    return resp.json();
  }
  function refresh() { location.reload(); }

  let timer = null;
  document.getElementById('code').addEventListener('input', function(e) {
    clearTimeout(timer);
    timer = setTimeout(function() { call('/api/code', {code: e.target.value}).then(refresh); }, 400);
  });
  document.getElementById('undo').onclick = function() { call('/api/undo').then(refresh); };
  document.getElementById('reset').onclick = function() { call('/api/reset').then(refresh); };
  document.getElementById('snapshot').onclick = function() { call('/api/snapshots', {label: prompt('Label') || ''}); };

  document.querySelectorAll('.palette-item').forEach(function(el) {
    el.addEventListener('dragstart', function(e) {
      e.dataTransfer.setData('text/plain', el.dataset.kind);
      call('/api/drag', {kind: el.dataset.kind});
    });
    el.addEventListener('dragend', function() { call('/api/drag', {cancel: true}); });
  });

  let lastTarget = '';
  function over(body) {
    const key = JSON.stringify(body);
    if (key !== lastTarget) { lastTarget = key; call('/api/dragover', body); }
  }
  const pane = document.getElementById('preview-pane');
  pane.addEventListener('dragover', function(e) {
    e.preventDefault();
    const ins = e.target.closest('.insertion');
    if (ins) { over({target: 'insertion', index: +ins.dataset.index}); return; }
    const box = e.target.closest('[id]');
    if (box && box.id !== 'preview' && box.id !== 'preview-pane') { over({target: 'container', id: box.id}); return; }
    over({target: 'nothing'});
  });
  pane.addEventListener('dragleave', function(e) {
    if (!pane.contains(e.relatedTarget)) { lastTarget = ''; call('/api/dragover', {target: 'leave'}); }
  });
  pane.addEventListener('drop', function(e) {
    e.preventDefault();
    lastTarget = '';
    call('/api/drop').then(refresh);
  });

  document.querySelectorAll('.swatches button').forEach(function(b) {
    b.onclick = function() {
      const kind = document.querySelector('input[name=kind]:checked').value;
      call('/api/color', {color: b.dataset.color, kind: kind}).then(refresh);
    };
  });
  const preview = document.getElementById('preview');
  if (preview) {
    preview.addEventListener('click', function(e) {
      const el = e.target.closest('[id]');
      const id = el && el.id !== 'preview' ? el.id : '';
      e.preventDefault();
      call('/api/click', {id: id, event: 'onClick'}).then(function(res) {
        if (res.painted || res.handled || res.dialog_open !== {{.DialogOpen}} || !id) { refresh(); }
      });
    });
  }
})();
</script>
</body>
</html>
`
