package models

import "strings"

// NormalizePhone приводит телефон к сравнимому виду: только цифры,
// ведущая восьмерка заменяется на семерку. Менеджеры в таблице пишут
// номера как попало: "+7 (999) 123-45-67" и "89991234567" это один номер.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	return digits
}

// SamePhone сравнивает два телефона после нормализации.
func SamePhone(a, b string) bool {
	na, nb := NormalizePhone(a), NormalizePhone(b)
	return na != "" && na == nb
}
