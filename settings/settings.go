package settings

import "math"

type number interface {
	int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64
}

type Setting[T number] struct {
	Default T // soft limit
	Maximal T // hard limit
}

type (
	// HeadersNumber is responsible for the amount of headers per message.
	// Default value is an initial size of allocated headers storage.
	// Maximal value is the number of headers allowed to be presented
	HeadersNumber Setting[uint8]

	// HeadersKeyLength is responsible for header key length.
	// Default value is an initial size of the header key buffer.
	// Maximal value is a maximal length of a header key
	HeadersKeyLength Setting[uint8]

	// HeadersValueLength is responsible for header value length.
	// Default value is an initial size for every header value.
	// Maximal value is a maximal possible length of a header value
	HeadersValueLength Setting[uint16]

	// HeadersSectionSize limits the whole header section, the request line
	// included. Crossing the Maximal boundary aborts parsing with a header
	// overflow error.
	// Default value is unused.
	// Maximal value defaults to 80 KiB, matching the widely deployed limit
	HeadersSectionSize Setting[uint32]

	// URLLength is responsible for the request target buffer.
	// Default value is an initial size of the buffer.
	// Maximal value is a maximal length of the request target
	URLLength Setting[uint16]

	// TCPRead is responsible for the per-connection read buffer.
	// Default value is how many bytes are read from the socket at most
	TCPRead Setting[uint16]

	// BodyLength is responsible for body length parameters.
	// Default value stands for nothing, it's unused.
	// Maximal value is a maximal length of a message body
	BodyLength Setting[uint32]

	// BodyChunkSize is responsible for chunks in chunked transfer encoding mode.
	// Default value stands for nothing because of peculiar properties of the
	//         chunked body parser.
	// Maximal value is a maximal length of a single chunk
	BodyChunkSize Setting[uint32]

	// ResponseBuffSize is an initial size of the response serialization buffer
	ResponseBuffSize Setting[uint32]
)

type (
	Headers struct {
		Number      HeadersNumber
		KeyLength   HeadersKeyLength
		ValueLength HeadersValueLength
		SectionSize HeadersSectionSize
	}

	URL struct {
		Length URLLength
	}

	TCP struct {
		Read TCPRead
	}

	Body struct {
		Length    BodyLength
		ChunkSize BodyChunkSize
	}

	HTTP struct {
		ResponseBuffSize ResponseBuffSize
		// Lenient tolerates protocol deviations which the strict mode rejects:
		// obs-fold header continuations and a Content-Length accompanying
		// chunked Transfer-Encoding. Strict parsing is the default.
		Lenient bool
	}
)

type Settings struct {
	Headers Headers
	URL     URL
	TCP     TCP
	Body    Body
	HTTP    HTTP
}

func Default() Settings {
	// Usually, Default field stands for size of pre-allocated something
	// and Maximal stands for maximal size of something

	return Settings{
		Headers: Headers{
			Number: HeadersNumber{
				Default: 25,
				Maximal: 100,
			},
			KeyLength: HeadersKeyLength{
				Default: 100,
				Maximal: math.MaxUint8,
			},
			ValueLength: HeadersValueLength{
				Default: 4096,
				Maximal: 8192,
			},
			SectionSize: HeadersSectionSize{
				Maximal: 80 * 1024,
			},
		},
		URL: URL{
			Length: URLLength{
				Default: 8192,
				Maximal: math.MaxUint16,
			},
		},
		TCP: TCP{
			Read: TCPRead{
				Default: 2048,
			},
		},
		Body: Body{
			Length: BodyLength{
				Default: 1024,
				Maximal: math.MaxUint32,
			},
			ChunkSize: BodyChunkSize{
				Default: 4096,
				Maximal: math.MaxUint32,
			},
		},
		HTTP: HTTP{
			ResponseBuffSize: ResponseBuffSize{
				Default: 1024,
			},
		},
	}
}

// Fill takes some settings and fills it with default values
// everywhere where it is not filled
func Fill(original Settings) (modified Settings) {
	defaults := Default()

	original.Headers.Number.Default = customOrDefault(
		original.Headers.Number.Default, defaults.Headers.Number.Default,
	)
	original.Headers.Number.Maximal = customOrDefault(
		original.Headers.Number.Maximal, defaults.Headers.Number.Maximal,
	)
	original.Headers.KeyLength.Default = customOrDefault(
		original.Headers.KeyLength.Default, defaults.Headers.KeyLength.Default,
	)
	original.Headers.KeyLength.Maximal = customOrDefault(
		original.Headers.KeyLength.Maximal, defaults.Headers.KeyLength.Maximal,
	)
	original.Headers.ValueLength.Default = customOrDefault(
		original.Headers.ValueLength.Default, defaults.Headers.ValueLength.Default,
	)
	original.Headers.ValueLength.Maximal = customOrDefault(
		original.Headers.ValueLength.Maximal, defaults.Headers.ValueLength.Maximal,
	)
	original.Headers.SectionSize.Maximal = customOrDefault(
		original.Headers.SectionSize.Maximal, defaults.Headers.SectionSize.Maximal,
	)
	original.URL.Length.Default = customOrDefault(
		original.URL.Length.Default, defaults.URL.Length.Default,
	)
	original.URL.Length.Maximal = customOrDefault(
		original.URL.Length.Maximal, defaults.URL.Length.Maximal,
	)
	original.TCP.Read.Default = customOrDefault(
		original.TCP.Read.Default, defaults.TCP.Read.Default,
	)
	original.Body.Length.Maximal = customOrDefault(
		original.Body.Length.Maximal, defaults.Body.Length.Maximal,
	)
	original.Body.ChunkSize.Maximal = customOrDefault(
		original.Body.ChunkSize.Maximal, defaults.Body.ChunkSize.Maximal,
	)
	original.HTTP.ResponseBuffSize.Default = customOrDefault(
		original.HTTP.ResponseBuffSize.Default, defaults.HTTP.ResponseBuffSize.Default,
	)

	return original
}

func customOrDefault[T number](custom, defaultVal T) T {
	if custom == 0 {
		return defaultVal
	}

	return custom
}
