package services

import (
	"fmt"

	"loancrm/internal/models"
)

type Category string

const (
	CategoryContact      Category = "contact"
	CategoryApprove      Category = "approve"
	CategoryDocuments    Category = "documents"
	CategoryFileLogin    Category = "file_login"
	CategorySanction     Category = "sanction"
	CategoryDisbursement Category = "disbursement"
)

// Stage field names as reported in MissingField errors.
const (
	FieldOccupation         = "occupation"
	FieldLoanAmount         = "loanAmount"
	FieldBankName           = "bankName"
	FieldApplicationNumber  = "applicationNumber"
	FieldLoginDate          = "loginDate"
	FieldLoginValue         = "loginValue"
	FieldSanctionROI        = "sanctionRoi"
	FieldSanctionTenure     = "sanctionTenure"
	FieldSanctionValue      = "sanctionValue"
	FieldSanctionDate       = "sanctionDate"
	FieldDisbursementAmount = "disbursementAmount"
	FieldIsLegal            = "isLegal"
	FieldIsTechnical        = "isTechnical"
)

type FieldCheck int

const (
	CheckPresent FieldCheck = iota
	CheckPositive
)

type FieldRule struct {
	Name  string
	Check FieldCheck
}

// StageRequirements is what a lead must carry to enter a status.
type StageRequirements struct {
	Status         int
	Category       Category
	RequiredFields []FieldRule
	// AnyOf groups: at least one boolean field of each group must be true.
	AnyOf        [][]string
	MinDocuments int
	NextStatuses []int
	// RewriteTo is applied on entry when HasRewrite is set.
	RewriteTo  int
	HasRewrite bool
}

const minDocumentsForCollection = 3

var categoryFields = map[Category][]FieldRule{
	CategoryContact: nil,
	CategoryApprove: {
		{FieldOccupation, CheckPresent},
		{FieldLoanAmount, CheckPositive},
	},
	CategoryDocuments: nil,
	CategoryFileLogin: {
		{FieldBankName, CheckPresent},
		{FieldApplicationNumber, CheckPresent},
		{FieldLoginDate, CheckPresent},
		{FieldLoginValue, CheckPositive},
	},
	CategorySanction: {
		{FieldSanctionROI, CheckPositive},
		{FieldSanctionTenure, CheckPositive},
		{FieldSanctionValue, CheckPositive},
		{FieldSanctionDate, CheckPresent},
	},
	CategoryDisbursement: {
		{FieldDisbursementAmount, CheckPositive},
	},
}

var statusCategory = map[int]Category{
	models.StatusApproved:      CategoryApprove,
	models.StatusDocsPending:   CategoryDocuments,
	models.StatusDocsCollected: CategoryDocuments,
	models.StatusLoginPending:  CategoryFileLogin,
	models.StatusFileLogged:    CategoryFileLogin,
	models.StatusSanctionDue:   CategorySanction,
	models.StatusSanctioned:    CategorySanction,
	models.StatusDisbursed:     CategoryDisbursement,
}

// Statuses reachable from any status without an admin.
var exceptionStatuses = map[int]bool{
	models.StatusDropped: true,
}

var statusLabels = map[int]string{
	models.StatusNew:           "New",
	models.StatusFollowUp:      "Follow up",
	models.StatusAssigned:      "Assigned",
	models.StatusInterested:    "Interested",
	models.StatusApproved:      "Approved",
	5:                          "Not reachable",
	6:                          "Call back",
	7:                          "Not interested",
	8:                          "Not eligible",
	9:                          "On hold",
	10:                         "Pending documents request",
	models.StatusDocsPending:   "Documents pending",
	models.StatusDocsCollected: "Documents collected",
	models.StatusLoginPending:  "Login pending",
	models.StatusFileLogged:    "File logged",
	models.StatusSanctionDue:   "Sanction pending",
	models.StatusSanctioned:    "Sanctioned",
	models.StatusDisbursed:     "Disbursed",
	18:                         "Part disbursed",
	19:                         "Cancelled after sanction",
	20:                         "Rejected by bank",
	21:                         "Re-login",
	models.StatusDropped:       "Dropped",
}

func KnownStatus(status int) bool {
	return status >= models.MinStatus && status <= models.MaxStatus
}

func Label(status int) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return fmt.Sprintf("Status %d", status)
}

// CategoryOf defaults to contact for codes without a dedicated stage.
func CategoryOf(status int) Category {
	if c, ok := statusCategory[status]; ok {
		return c
	}
	return CategoryContact
}

// isContactCode marks the codes without a dedicated stage; they move freely among themselves.
func isContactCode(status int) bool {
	return KnownStatus(status) && CategoryOf(status) == CategoryContact
}

// CanMove reports whether from -> to respects the pipeline ordering.
func CanMove(from, to int, admin bool) bool {
	switch {
	case !KnownStatus(to):
		return false
	case admin, to >= from, exceptionStatuses[to]:
		return true
	case isContactCode(from) && isContactCode(to):
		return true
	}
	return false
}

func NextStatuses(from int) []int {
	out := make([]int, 0, models.MaxStatus+1)
	for s := models.MinStatus; s <= models.MaxStatus; s++ {
		if CanMove(from, s, false) {
			out = append(out, s)
		}
	}
	return out
}

// RequirementsFor looks up the rules for entering status.
func RequirementsFor(status int) StageRequirements {
	cat := CategoryOf(status)
	req := StageRequirements{
		Status:         status,
		Category:       cat,
		RequiredFields: categoryFields[cat],
		NextStatuses:   NextStatuses(status),
	}
	switch status {
	case models.StatusDocsPending:
		req.RewriteTo = models.StatusDocsCollected
		req.HasRewrite = true
		req.MinDocuments = minDocumentsForCollection
	case models.StatusDocsCollected:
		req.MinDocuments = minDocumentsForCollection
	case models.StatusDisbursed:
		req.AnyOf = [][]string{{FieldIsLegal, FieldIsTechnical}}
	}
	return req
}

// EffectiveStatus applies the entry rewrite rule, if any.
// TODO: confirm with product whether 11 needs its own form instead of the rewrite to 12.
func EffectiveStatus(status int) int {
	if req := RequirementsFor(status); req.HasRewrite {
		return req.RewriteTo
	}
	return status
}
