package presence

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Status string

const (
	StatusEntrada          Status = "entrada"
	StatusSaidaIntervalo   Status = "saida-intervalo"
	StatusEntradaIntervalo Status = "entrada-intervalo"
	StatusSaida            Status = "saida"
	StatusFalta            Status = "falta"
)

// Statuses lists the closed set of valid statuses in declaration order.
var Statuses = []Status{
	StatusEntrada,
	StatusSaidaIntervalo,
	StatusEntradaIntervalo,
	StatusSaida,
	StatusFalta,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts the canonical values plus case, accent and separator
// variants ("Saída Intervalo" -> saida-intervalo). Anything else is rejected.
func ParseStatus(raw string) (Status, error) {
	// transformers carry state, build one per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(fold, strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", ErrInvalid(fmt.Sprintf("Status inválido: %q", raw))
	}
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "-")

	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalid(fmt.Sprintf("Status inválido: %q. Use entrada, saida-intervalo, entrada-intervalo, saida ou falta.", raw))
	}
	return st, nil
}
