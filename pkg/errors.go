// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Sabit error değerleri errors.Is() ile karşılaştırılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Service katmanı bu sentinel'ları fmt.Errorf("%w: sebep", ...) ile sarar.
// Sarılan "sebep" string'i istemciye aynen döner — spec'teki stable reason
// string'leri ("connection required", "edit window expired" vb.) buradan gelir.
// Böylece istemci hem HTTP status'tan hem reason'dan branch edebilir:
// not-found ("request expired") ile forbidden ("not allowed") ayrı render edilir.
package pkg

import "errors"

// Domain-level error'lar.
// Handler katmanı bu error'ları HTTP status code'larına map'ler.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)
