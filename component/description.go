package component

var RecurrenceLabels = map[RecurrenceType]string{
	Daily:   "Diariamente",
	Weekly:  "Semanalmente",
	Monthly: "Mensalmente",
}

func RecurrenceLabel(r RecurrenceType) string {
	if label, ok := RecurrenceLabels[r]; ok {
		return label
	}
	return "Não recorrente"
}
