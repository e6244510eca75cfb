package mime

import "bytes"

// sniffLen limits how many leading body bytes participate in detection.
const sniffLen = 512

// Detect implements a practical subset of the algorithm described at
// https://mimesniff.spec.whatwg.org/ to determine the Content-Type of the given
// data. It considers at most the first 512 bytes. Detect always returns a valid
// MIME type: if it cannot determine a more specific one, it returns
// "application/octet-stream".
func Detect(data []byte) MIME {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}

	// trim leading whitespace before matching tag-like signatures
	firstNonWS := 0
	for ; firstNonWS < len(data); firstNonWS++ {
		switch data[firstNonWS] {
		case '\t', '\n', '\x0c', '\r', ' ':
		default:
			goto trimmed
		}
	}
trimmed:

	for _, sig := range sniffSignatures {
		if ct := sig.match(data, firstNonWS); ct != "" {
			return ct
		}
	}

	if looksLikeText(data) {
		return Plain
	}

	return OctetStream
}

type sniffSig interface {
	match(data []byte, firstNonWS int) MIME
}

// exactSig matches a fixed magic prefix.
type exactSig struct {
	sig []byte
	ct  MIME
}

func (e *exactSig) match(data []byte, _ int) MIME {
	if bytes.HasPrefix(data, e.sig) {
		return e.ct
	}

	return ""
}

// maskedSig matches a prefix under a bit mask, e.g. RIFF containers.
type maskedSig struct {
	mask, pat []byte
	ct        MIME
}

func (m *maskedSig) match(data []byte, _ int) MIME {
	if len(data) < len(m.mask) {
		return ""
	}

	for i, mask := range m.mask {
		if data[i]&mask != m.pat[i] {
			return ""
		}
	}

	return m.ct
}

// htmlSig matches a case-insensitive tag at the first non-whitespace position,
// followed by a space or a bracket.
type htmlSig []byte

func (h htmlSig) match(data []byte, firstNonWS int) MIME {
	data = data[firstNonWS:]
	if len(data) < len(h)+1 {
		return ""
	}

	for i, b := range h {
		db := data[i]
		if 'A' <= b && b <= 'Z' {
			db &= 0xDF
		}

		if b != db {
			return ""
		}
	}

	if db := data[len(h)]; db != ' ' && db != '>' {
		return ""
	}

	return HTML
}

// mp4Sig matches the ISO base media file format box header.
type mp4Sig struct{}

func (mp4Sig) match(data []byte, _ int) MIME {
	if len(data) < 12 {
		return ""
	}

	boxSize := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	if boxSize%4 != 0 || len(data) < boxSize || string(data[4:8]) != "ftyp" {
		return ""
	}

	for st := 8; st < boxSize; st += 4 {
		if st == 12 {
			// minor version number is not a brand
			continue
		}

		if string(data[st:st+3]) == "mp4" {
			return MP4
		}
	}

	return ""
}

var sniffSignatures = []sniffSig{
	htmlSig("<!DOCTYPE HTML"),
	htmlSig("<HTML"),
	htmlSig("<HEAD"),
	htmlSig("<SCRIPT"),
	htmlSig("<IFRAME"),
	htmlSig("<H1"),
	htmlSig("<DIV"),
	htmlSig("<FONT"),
	htmlSig("<TABLE"),
	htmlSig("<A"),
	htmlSig("<STYLE"),
	htmlSig("<TITLE"),
	htmlSig("<B"),
	htmlSig("<BODY"),
	htmlSig("<BR"),
	htmlSig("<P"),
	htmlSig("<!--"),
	&exactSig{[]byte("<?xml"), XML},
	&exactSig{[]byte("%PDF-"), PDF},
	&exactSig{[]byte("%!PS-Adobe-"), PostScript},
	&exactSig{[]byte("GIF87a"), GIF},
	&exactSig{[]byte("GIF89a"), GIF},
	&exactSig{[]byte("\x89PNG\r\n\x1a\n"), PNG},
	&exactSig{[]byte("\xFF\xD8\xFF"), JPEG},
	&exactSig{[]byte("BM"), BMP},
	&exactSig{[]byte("FLV\x01"), FLV},
	&exactSig{[]byte("OggS\x00"), OGG},
	&exactSig{[]byte("MThd\x00\x00\x00\x06"), MIDI},
	&exactSig{[]byte("ID3"), MP3},
	&exactSig{[]byte("\x1A\x45\xDF\xA3"), WEBM},
	&exactSig{[]byte("\x00\x00\x01\xBA"), MPEG},
	&exactSig{[]byte("\x00\x00\x01\xB3"), MPEG},
	&maskedSig{
		mask: []byte("\xFF\xFF\xFF\xFF\x00\x00\x00\x00\xFF\xFF\xFF\xFF"),
		pat:  []byte("RIFF\x00\x00\x00\x00WAVE"),
		ct:   WAVE,
	},
	&maskedSig{
		mask: []byte("\xFF\xFF\xFF\xFF\x00\x00\x00\x00\xFF\xFF\xFF\xFF"),
		pat:  []byte("RIFF\x00\x00\x00\x00AVI "),
		ct:   AVI,
	},
	&maskedSig{
		mask: []byte("\xFF\xFF\xFF\xFF\x00\x00\x00\x00\xFF\xFF\xFF\xFF"),
		pat:  []byte("RIFF\x00\x00\x00\x00WEBP"),
		ct:   WEBP,
	},
	&exactSig{[]byte("\x00\x00\x01\x00"), ICO},
	&exactSig{[]byte("FORM"), AIFF},
	mp4Sig{},
}

// looksLikeText reports whether the data is plausibly textual: no byte from the
// binary-data ranges of the mimesniff spec occurs.
func looksLikeText(data []byte) bool {
	for _, b := range data {
		switch {
		case b <= 0x08,
			b == 0x0B,
			0x0E <= b && b <= 0x1A,
			0x1C <= b && b <= 0x1F:
			return false
		}
	}

	return len(data) > 0
}
