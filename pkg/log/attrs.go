package log

import "log/slog"

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func StepID[T ~string](id T) slog.Attr {
	return slog.String("step_id", string(id))
}

func FieldID[T ~string](id T) slog.Attr {
	return slog.String("field_id", string(id))
}

func Action[T ~string](id T) slog.Attr {
	return slog.String("action_id", string(id))
}

func EventType[T ~string](typ T) slog.Attr {
	return slog.String("event_type", string(typ))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
