package attendance

import (
	"strings"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

type Command string

const (
	CmdEntrada Command = "entrada"
	CmdSaida   Command = "saida"
	CmdPausa   Command = "pausa"
	CmdVolta   Command = "volta"
	CmdHoras   Command = "horas"
)

var vocabulary = map[string]Command{
	string(CmdEntrada): CmdEntrada,
	string(CmdSaida):   CmdSaida,
	string(CmdPausa):   CmdPausa,
	string(CmdVolta):   CmdVolta,
	string(CmdHoras):   CmdHoras,
}

// ParseCommand returns the first whitespace-separated token of body that is
// an exact command word. Matching is case-insensitive; nothing else is
// normalised.
func ParseCommand(body string) (Command, bool) {
	for _, word := range strings.Fields(strings.ToLower(strings.TrimSpace(body))) {
		if c, ok := vocabulary[word]; ok {
			return c, true
		}
	}
	return "", false
}

// RecordType maps a clock command to the record it creates. horas creates
// none.
func (c Command) RecordType() (types.RecordType, bool) {
	switch c {
	case CmdEntrada:
		return types.RecordEntrada, true
	case CmdSaida:
		return types.RecordSaida, true
	case CmdPausa:
		return types.RecordPausa, true
	case CmdVolta:
		return types.RecordVolta, true
	}
	return "", false
}
