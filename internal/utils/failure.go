package utils

import (
	"log/slog"
	"sort"
)

type ErrorType int

const (
	ErrInternal ErrorType = iota
	ErrUnknownCommand
	ErrHandler
	ErrErrorHandler
	ErrFinalize
	ErrGuildSync
	ErrPermissionSync
)

func (t ErrorType) String() string {
	switch t {
	case ErrUnknownCommand:
		return "unknown_command"
	case ErrHandler:
		return "handler"
	case ErrErrorHandler:
		return "error_handler"
	case ErrFinalize:
		return "finalize"
	case ErrGuildSync:
		return "guild_sync"
	case ErrPermissionSync:
		return "permission_sync"
	}
	return "internal"
}

// UserVisible reports whether a failure of this type may reach the end user.
// Everything else is for operators only.
func (t ErrorType) UserVisible() bool {
	return t == ErrUnknownCommand || t == ErrHandler
}

type Failure struct {
	Type    ErrorType
	Message string
	Data    map[string]any
}

func (f Failure) Error() string {
	return f.Message
}

func (f Failure) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", f.Type.String()),
		slog.String("message", f.Message),
	}

	keys := make([]string, 0, len(f.Data))
	for k := range f.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, f.Data[k]))
	}

	return slog.GroupValue(attrs...)
}
