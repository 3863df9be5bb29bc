package mime

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	CSS            MIME = "text/css"
	JS             MIME = "text/javascript"
	JSON           MIME = "application/json"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	PNG            MIME = "image/png"
	ICO            MIME = "image/vnd.microsoft.icon"
	SVG            MIME = "image/svg+xml"
)

// Header renders the Content-Type header line for the MIME, as accepted by
// http.Session.Header.
func Header(mime MIME) string {
	return "Content-Type: " + mime
}
