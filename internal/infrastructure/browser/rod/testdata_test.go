package rod

// Test pages served by httptest.
const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Hello World</h1>
</body>
</html>`

	// SearchHTML mimics the visual-search page: choosing a file fires a
	// search request and then reveals the results region.
	SearchHTML = `<!DOCTYPE html>
<html>
<head><link rel="stylesheet" href="/font.css"></head>
<body>
	<img id="hero" src="/hero.png" />
	<input id="file" type="file" accept="image/*" />
	<input id="name" type="text" />
	<div id="status"></div>
	<section id="results" style="display:none"></section>
	<script>
		document.getElementById('file').addEventListener('change', async function (e) {
			const f = e.target.files[0];
			document.getElementById('status').textContent = f.name + ':' + f.type + ':' + f.size;
			const res = await fetch('/search?stylesnapToken=t0k3n', { method: 'POST', body: f });
			const data = await res.json();
			const section = document.getElementById('results');
			section.textContent = data.queryId;
			section.style.display = 'block';
		});
	</script>
</body>
</html>`
)
