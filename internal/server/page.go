package server

import "html/template"

type pageData struct {
	Section string
	Preview template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>docgen preview{{if .Section}} - {{.Section}}{{end}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 900px; margin: 2rem auto; padding: 0 1rem; color: #1f2328; line-height: 1.6; }
pre { position: relative; padding: 1rem; overflow: auto; border-radius: 6px; background: #f6f8fa; }
.copy-code-btn { position: absolute; top: .5rem; right: .5rem; border: 0; background: transparent; cursor: pointer; opacity: .6; }
.copy-code-btn:hover, .copy-code-btn.copied { opacity: 1; }
.table-responsive { overflow-x: auto; }
.preview-table { border-collapse: collapse; width: 100%; }
.preview-table th, .preview-table td { border: 1px solid #d0d7de; padding: .4rem .8rem; }
.img-fluid { max-width: 100%; height: auto; }
.tech-badge { height: 22px; margin: 0 .15rem; vertical-align: middle; }
.mention { color: #0969da; font-weight: 600; text-decoration: none; }
#status { position: fixed; bottom: .5rem; right: .5rem; font-size: .75rem; color: #6b7280; }
</style>
</head>
<body>
<div id="markdown-preview">{{.Preview}}</div>
<div id="status">connecting</div>
<script>
(function () {
  var preview = document.getElementById('markdown-preview');
  var status = document.getElementById('status');
  preview.addEventListener('click', function (ev) {
    var btn = ev.target.closest('.copy-code-btn');
    if (!btn) return;
    var code = btn.parentElement.querySelector('code');
    navigator.clipboard.writeText(code ? code.textContent : '').then(function () {
      btn.classList.add('copied');
      setTimeout(function () { btn.classList.remove('copied'); }, 2000);
    });
  });
  function connect() {
    var ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    ws.onopen = function () { status.textContent = 'live'; };
    ws.onmessage = function (ev) {
      var u = JSON.parse(ev.data);
      preview.innerHTML = u.html;
      document.title = 'docgen preview - ' + u.section;
    };
    ws.onclose = function () { status.textContent = 'reconnecting'; setTimeout(connect, 1000); };
  }
  connect();
})();
</script>
</body>
</html>
`))
