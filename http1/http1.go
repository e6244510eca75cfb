// Package http1 implements the HTTP/1.x wire codec: the streaming request and
// response parsers, the framed body readers and the response writer. It never
// touches routing, the packages above compose it with a handler.
package http1

import (
	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/utils/buffer"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport"
)

// New wires a request parser and a body reader over the same connection. The
// buffers are sized from the settings, so a filled settings object is expected.
func New(request *http.Request, client transport.Client, s settings.Settings) (*Parser, *Body) {
	keyBuff, valBuff, startLineBuff := newBuffers(s)
	parser := NewParser(request, keyBuff, valBuff, startLineBuff, s)
	body := NewBody(client, parser, chunkedbody.NewParser(chunkedbody.DefaultSettings()), s.Body)

	return parser, body
}

// NewResponseSuit is the client-side counterpart of New.
func NewResponseSuit(response *http.Response, client transport.Client, s settings.Settings) (*ResponseParser, *Body) {
	keyBuff, valBuff, respLineBuff := newBuffers(s)
	parser := NewResponseParser(response, keyBuff, valBuff, respLineBuff, s)
	body := NewBody(client, nil, chunkedbody.NewParser(chunkedbody.DefaultSettings()), s.Body)

	return parser, body
}

func newBuffers(s settings.Settings) (keyBuff, valBuff, lineBuff *buffer.Buffer) {
	keyBuff = buffer.New(
		int(s.Headers.KeyLength.Default)*int(s.Headers.Number.Default),
		int(s.Headers.KeyLength.Maximal)*int(s.Headers.Number.Maximal),
	)
	valBuff = buffer.New(
		int(s.Headers.ValueLength.Default),
		int(s.Headers.ValueLength.Maximal)*int(s.Headers.Number.Maximal),
	)
	lineBuff = buffer.New(int(s.URL.Length.Default), int(s.URL.Length.Maximal))

	return keyBuff, valBuff, lineBuff
}
