package provisioning

import "net/http"

// portalChunkSize bounds each write of the configuration page so peak
// memory stays flat regardless of page size.
const portalChunkSize = 4096

// portalPage is the captive configuration page. Self-contained; the
// access point has no upstream to fetch assets from.
const portalPage = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Configuración del controlador de riego</title>
<style>
body { font-family: sans-serif; margin: 1em; max-width: 28em; }
h1 { font-size: 1.2em; }
label { display: block; margin-top: 0.8em; }
input, select { width: 100%; padding: 0.4em; box-sizing: border-box; }
button { margin-top: 1em; padding: 0.5em 1.2em; }
#msg { margin-top: 1em; font-weight: bold; }
.err { color: #a00; }
.ok { color: #070; }
</style>
</head>
<body>
<h1>Configuración del controlador de riego</h1>
<p>Seleccione la red WiFi de la finca e ingrese la contraseña.</p>

<button id="scanBtn" type="button">Buscar redes</button>
<form id="cfg">
<label>Red (SSID)
<select id="networks"><option value="">-- buscar primero --</option></select>
</label>
<label>O escriba el nombre de la red
<input name="ssid" id="ssid" maxlength="32">
</label>
<label>Contraseña
<input name="password" id="password" type="password" maxlength="64">
</label>
<label>Nombre del equipo
<input name="device_name" id="device_name" maxlength="32">
</label>
<label>Ubicación
<input name="device_location" id="device_location" maxlength="64">
</label>
<button type="submit">Conectar</button>
</form>
<div id="msg"></div>

<script>
var msg = document.getElementById('msg');

document.getElementById('scanBtn').onclick = function () {
  msg.textContent = 'Buscando...';
  msg.className = '';
  fetch('/scan').then(function (r) { return r.json(); }).then(function (nets) {
    if (!Array.isArray(nets)) {
      msg.textContent = nets.message || 'Error al buscar redes';
      msg.className = 'err';
      return;
    }
    var sel = document.getElementById('networks');
    sel.innerHTML = '';
    nets.forEach(function (n) {
      var o = document.createElement('option');
      o.value = n.ssid;
      o.textContent = n.ssid + ' (' + n.rssi + ' dBm' + (n.auth === 'secured' ? ', segura' : '') + ')';
      sel.appendChild(o);
    });
    msg.textContent = nets.length + ' redes encontradas';
    msg.className = 'ok';
  }).catch(function () {
    msg.textContent = 'Error al buscar redes';
    msg.className = 'err';
  });
};

document.getElementById('networks').onchange = function () {
  document.getElementById('ssid').value = this.value;
};

document.getElementById('cfg').onsubmit = function (ev) {
  ev.preventDefault();
  msg.textContent = 'Validando credenciales, espere hasta 15 segundos...';
  msg.className = '';
  var fields = ['ssid', 'password', 'device_name', 'device_location'];
  var body = fields.map(function (f) {
    return f + '=' + encodeURIComponent(document.getElementById(f).value);
  }).join('&');
  fetch('/config', {
    method: 'POST',
    headers: { 'Content-Type': 'application/x-www-form-urlencoded' },
    body: body
  }).then(function (r) { return r.json(); }).then(function (res) {
    msg.textContent = res.message;
    msg.className = res.success ? 'ok' : 'err';
  }).catch(function () {
    msg.textContent = 'Error de conexión, intente de nuevo';
    msg.className = 'err';
  });
};
</script>
</body>
</html>
`

// writeChunked writes the page in bounded chunks, flushing between them.
func writeChunked(w http.ResponseWriter, page string) {
	flusher, canFlush := w.(http.Flusher)

	for off := 0; off < len(page); off += portalChunkSize {
		end := off + portalChunkSize
		if end > len(page) {
			end = len(page)
		}

		if _, err := w.Write([]byte(page[off:end])); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}
