package mime

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain; charset=utf-8"
	HTML           MIME = "text/html; charset=utf-8"
	XML            MIME = "text/xml"
	JSON           MIME = "application/json"
	PDF            MIME = "application/pdf"
	PostScript     MIME = "application/postscript"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	GIF            MIME = "image/gif"
	JPEG           MIME = "image/jpeg"
	PNG            MIME = "image/png"
	BMP            MIME = "image/bmp"
	WEBP           MIME = "image/webp"
	ICO            MIME = "image/x-icon"
	WAVE           MIME = "audio/wave"
	AIFF           MIME = "audio/aiff"
	MP3            MIME = "audio/mpeg"
	OGG            MIME = "application/ogg"
	MIDI           MIME = "audio/midi"
	AVI            MIME = "video/avi"
	MP4            MIME = "video/mp4"
	FLV            MIME = "video/x-flv"
	MPEG           MIME = "video/mpeg"
	WEBM           MIME = "video/webm"
)
