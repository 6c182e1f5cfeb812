package reader

import (
	"github.com/contactless/readerdrv/pkg/card"
	rerr "github.com/contactless/readerdrv/pkg/errors"
)

// SendCommand is the generic counterpart to Reader.Command, standing in
// for the legacy C++ API's templated Reader::send_command<Request,
// Answer>: the compiler, not a map of interface{}, pins down each call
// site's concrete request and answer wire types.
func SendCommand[Req card.WireEncoder, Ans card.WireDecoder](r *Reader, code byte, req Req, ans Ans) rerr.Code {
	return r.Command(code, req, ans)
}
