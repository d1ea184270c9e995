package main

import "html/template"

type pageData struct {
	ViewModel
	Date    string
	Refresh bool
}

var galleryTemplate = template.Must(template.New("gallery").Parse(galleryHTML))

const galleryHTML string = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{- if .Refresh}}
<meta http-equiv="refresh" content="1">
{{- end}}
<title>Photo Search</title>
<style>
body { margin: 0; min-height: 100vh; background: #f3f4f6; font-family: sans-serif; }
main { max-width: 1200px; margin: 0 auto; padding: 24px; }
header { display: flex; justify-content: space-between; align-items: center; margin: 80px 0; }
h1 { font-size: 2.25rem; margin: 0; }
form.search { display: flex; gap: 16px; margin: 16px 0; }
form.search input { flex: 1; padding: 8px; border: 1px solid #d1d5db; border-radius: 6px; }
button { padding: 8px 16px; border: 0; border-radius: 6px; background: #3b82f6; color: #fff; cursor: pointer; }
button:disabled { background: #d1d5db; color: #000; cursor: not-allowed; }
.status { text-align: center; padding: 16px 0; }
.error { color: #ef4444; }
.grid { display: grid; gap: 24px; grid-template-columns: repeat(auto-fill, minmax(240px, 1fr)); }
.tile { position: relative; background: #e5e7eb; border-radius: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.2); }
.tile > img { width: 100%; height: 224px; object-fit: cover; border-radius: 16px 16px 0 0; display: block; }
.likes { position: absolute; top: 8px; right: 8px; background: rgba(255,255,255,.75); padding: 4px 8px; border-radius: 9999px; font-size: .875rem; }
.author { display: flex; align-items: center; gap: 16px; padding: 16px; }
.author img { width: 40px; height: 40px; border-radius: 50%; object-fit: cover; border: 1px solid #ccc; }
.more, footer { text-align: center; margin-top: 32px; }
footer { color: #6b7280; }
</style>
</head>
<body>
<main>
<header>
<h1>Photo Search</h1>
<p>{{.Date}}</p>
</header>

<form class="search" method="post" action="/search">
<input type="text" name="q" placeholder="Search images..." value="{{.Query}}">
<button type="submit">Search</button>
</form>

{{- if .Loading}}
<p class="status">Loading...</p>
{{- end}}
{{- if .Error}}
<p class="status error">{{.Error}}</p>
{{- end}}

<div class="grid">
{{- range .Tiles}}
<div class="tile" data-id="{{.Id}}">
<img src="{{.ImageUrl}}" alt="{{.AuthorName}}" width="500" height="300">
<div class="likes">&#10084;&#65039; {{.Likes}}</div>
<div class="author">
<img src="{{.AuthorImage}}" alt="{{.AuthorName}}" width="40" height="40">
<div><h3>{{.AuthorName}}</h3></div>
</div>
</div>
{{- end}}
</div>

{{- if .ShowLoadMore}}
<form class="more" method="post" action="/more">
<button type="submit"{{if .LoadMoreDisabled}} disabled{{end}}>{{.LoadMoreLabel}}</button>
</form>
{{- end}}

<footer>Made with &#10084;&#65039; and caprisun</footer>
</main>
</body>
</html>
`
