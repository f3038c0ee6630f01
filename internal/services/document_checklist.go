package services

import "loancrm/internal/models"

type documentCheck struct {
	name string
	get  func(models.DocumentFlags) bool
}

var documentChecks = []documentCheck{
	{"isidproof", func(d models.DocumentFlags) bool { return d.IDProof }},
	{"isaddressproof", func(d models.DocumentFlags) bool { return d.AddressProof }},
	{"isbankstatement", func(d models.DocumentFlags) bool { return d.BankStatement }},
	{"ispayslip", func(d models.DocumentFlags) bool { return d.Payslip }},
	{"isphoto", func(d models.DocumentFlags) bool { return d.Photo }},
	{"isitr", func(d models.DocumentFlags) bool { return d.ITR }},
	{"isform16", func(d models.DocumentFlags) bool { return d.Form16 }},
	{"ispropertydocs", func(d models.DocumentFlags) bool { return d.PropertyDocs }},
	{"isbusinessproof", func(d models.DocumentFlags) bool { return d.BusinessProof }},
}

// CountSatisfied returns how many documents are marked collected. Order does not matter.
func CountSatisfied(flags models.DocumentFlags) int {
	n := 0
	for _, c := range documentChecks {
		if c.get(flags) {
			n++
		}
	}
	return n
}

func IsSufficient(flags models.DocumentFlags, minimum int) bool {
	return CountSatisfied(flags) >= minimum
}

// Missing lists the flags still false, in checklist order.
func Missing(flags models.DocumentFlags) []string {
	var out []string
	for _, c := range documentChecks {
		if !c.get(flags) {
			out = append(out, c.name)
		}
	}
	return out
}
