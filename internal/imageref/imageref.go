// Package imageref classifies and converts the three forms an embedded image
// reference can take inside rich-text markup: an inline base64 data URI (not
// yet persisted), a bare numeric id (canonical stored form), and a fully
// qualified link (serve form).
package imageref

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Kind int

const (
	// KindInline is a data-URI payload that has not been persisted yet.
	KindInline Kind = iota
	// KindStoredID is a bare numeric id pointing at a persisted image.
	KindStoredID
	// KindLink is a fully qualified URL pointing at a persisted image.
	KindLink
)

// Ref is the classified form of an img src value.
type Ref struct {
	Kind Kind

	// ID is set for KindStoredID and KindLink.
	ID int64

	// MediaType and Data are set for KindInline.
	MediaType string
	Data      []byte
}

// DecodeError reports an src value that could not be classified as any
// reference form or whose inline payload failed to decode.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode image reference: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode image reference: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var (
	linkPattern = regexp.MustCompile(`^https?://.+/api/images/(\d+)$`)
	idPattern   = regexp.MustCompile(`^\d+$`)
)

// Classify determines which form src is in. Anything that is neither a link
// nor a bare id must decode as an image data URI or a *DecodeError is
// returned.
func Classify(src string) (Ref, error) {
	if m := linkPattern.FindStringSubmatch(src); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Ref{}, &DecodeError{Reason: "link id out of range", Err: err}
		}
		return Ref{Kind: KindLink, ID: id}, nil
	}
	if idPattern.MatchString(src) {
		id, err := strconv.ParseInt(src, 10, 64)
		if err != nil {
			return Ref{}, &DecodeError{Reason: "id out of range", Err: err}
		}
		return Ref{Kind: KindStoredID, ID: id}, nil
	}
	mediaType, data, err := DecodeDataURI(src)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Kind: KindInline, MediaType: mediaType, Data: data}, nil
}

// DecodeDataURI decodes a data URI of the form
// data:image/<type>[;params];base64,<payload>. The payload may be padded or
// unpadded base64.
func DecodeDataURI(src string) (mediaType string, data []byte, err error) {
	if !strings.HasPrefix(src, "data:image/") {
		return "", nil, &DecodeError{Reason: "not an image data URI"}
	}
	meta, payload, ok := strings.Cut(src, ",")
	if !ok {
		return "", nil, &DecodeError{Reason: "missing payload"}
	}
	mediaType, _, _ = strings.Cut(strings.TrimPrefix(meta, "data:"), ";")

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return "", nil, &DecodeError{Reason: "bad base64 payload", Err: err}
	}
	return mediaType, data, nil
}

// IDString renders an id in the canonical form written into stored markup.
func IDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Link renders the public serve-side form of a stored image reference.
func Link(baseURL string, id int64) string {
	return baseURL + "/api/images/" + strconv.FormatInt(id, 10)
}
