package monitoring

import (
	"github.com/rs/zerolog/log"
)

// Alert reports an operational problem that needs human attention. Currently
// logs at error level; a pager integration can hang off this hook.
func Alert(message string, labels map[string]string) {
	log.Error().
		Str("alert", message).
		Fields(labels).
		Msg("ALERT")
}
