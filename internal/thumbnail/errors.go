package thumbnail

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	LookupUnavailable
	DownloadFailed
	DecodeFailed
	RenderFailed
	CacheWriteFailed
)

func (k Kind) String() string {
	switch k {
	case LookupUnavailable:
		return "lookup_unavailable"
	case DownloadFailed:
		return "download_failed"
	case DecodeFailed:
		return "decode_failed"
	case RenderFailed:
		return "render_failed"
	case CacheWriteFailed:
		return "cache_write_failed"
	default:
		return "unknown"
	}
}

type StageError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(kind Kind, op string, err error) error {
	return &StageError{Kind: kind, Op: op, Err: err}
}

// asStage keeps an existing classification and tags anything else with kind.
func asStage(kind Kind, op string, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return stageErr(kind, op, err)
}

// KindOf reports the failure kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
