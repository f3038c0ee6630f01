package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"loancrm/internal/models"
	"loancrm/internal/repositories"
	"loancrm/internal/services"
)

const (
	btnMyLeads  = "📋 My leads"
	linkCodeTTL = 30 * time.Minute
	digestLimit = 20
)

type TelegramSender interface {
	SendMessage(chatID int64, text string) error
	SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error
}

type EmployeeChats interface {
	GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error)
	SetTelegramChat(ctx context.Context, id, chatID int64) error
}

type AssignedLeads interface {
	ListAssigned(ctx context.Context, acting models.ActingContext, employeeID int64, limit, offset int) ([]*models.LeadRecord, error)
}

// IntegrationsHandler binds employees to Telegram chats and answers bot commands.
type IntegrationsHandler struct {
	TG        TelegramSender
	LinksRepo repositories.TelegramLinkRepository
	Employees EmployeeChats
	Leads     AssignedLeads
	now       func() time.Time
}

func NewIntegrationsHandler(
	tg TelegramSender,
	links repositories.TelegramLinkRepository,
	employees EmployeeChats,
	leads AssignedLeads,
) *IntegrationsHandler {
	return &IntegrationsHandler{TG: tg, LinksRepo: links, Employees: employees, Leads: leads, now: time.Now}
}

func normalizeLinkCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`<>.,;:()[]{}\\")
	s = strings.ToUpper(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Hex_Digit, r) {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if len(code) != 32 {
		return "", false
	}
	return code, true
}

// Webhook always answers 200 so Telegram does not redeliver.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil || up.Message == nil || up.Message.Chat == nil {
		if err != nil {
			log.Printf("[tg][webhook] bind json error: %v", err)
		}
		c.Status(http.StatusOK)
		return
	}

	text := strings.TrimSpace(up.Message.Text)
	chatID := up.Message.Chat.ID
	log.Printf("[tg][webhook] chatID=%d text=%q", chatID, text)

	switch {
	case strings.HasPrefix(text, "/start"):
		_ = h.TG.SendReplyKeyboard(chatID,
			"Hi! To link your CRM account send:\n<code>/link &lt;code&gt;</code>",
			[][]string{{btnMyLeads}},
		)
	case strings.HasPrefix(text, "/link"):
		h.link(c.Request.Context(), chatID, strings.TrimPrefix(text, "/link"))
	case text == btnMyLeads:
		h.sendMyLeadsDigest(c.Request.Context(), chatID)
	default:
		_ = h.TG.SendMessage(chatID, "Unknown command. Use <code>/link &lt;code&gt;</code> or the menu button.")
	}
	c.Status(http.StatusOK)
}

func (h *IntegrationsHandler) link(ctx context.Context, chatID int64, raw string) {
	code, ok := normalizeLinkCode(raw)
	if !ok {
		_ = h.TG.SendMessage(chatID, "Wrong code format. Send exactly 32 hex characters:\n<code>/link 0123456789ABCDEF0123456789ABCDEF</code>")
		return
	}
	link, err := h.LinksRepo.UseByCode(ctx, code)
	if err != nil {
		log.Printf("[tg][link] code=%q: %v", code, err)
		_ = h.TG.SendMessage(chatID, "The code is invalid or expired. Request a new one in the CRM.")
		return
	}
	if err := h.Employees.SetTelegramChat(ctx, link.EmployeeID, chatID); err != nil {
		log.Printf("[tg][link] employee=%d chatID=%d: %v", link.EmployeeID, chatID, err)
		_ = h.TG.SendMessage(chatID, "Could not link the account, try again later.")
		return
	}
	_ = h.TG.SendReplyKeyboard(chatID,
		"Done! You will be notified here when a lead is assigned to you.",
		[][]string{{btnMyLeads}},
	)
}

// RequestTelegramLink godoc
// @Summary  Issue a one-time code for linking the caller's Telegram chat
// @Tags     integrations
// @Produce  json
// @Success  200 {object} map[string]interface{}
// @Router   /integrations/telegram/request-link [post]
func (h *IntegrationsHandler) RequestTelegramLink(c *gin.Context) {
	acting, ok := mustActing(c)
	if !ok {
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rng failed"})
		return
	}
	code := strings.ToUpper(hex.EncodeToString(buf))

	link, err := h.LinksRepo.Create(c.Request.Context(), acting.UserID, code, linkCodeTTL)
	if err != nil {
		log.Printf("[tg][request-link] employee=%d: %v", acting.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":       link.Code,
		"expires_at": link.ExpiresAt,
		"hint":       "Open the bot chat and send: /link " + link.Code,
	})
}

// appointmentBucket groups a lead by calendar days, in now's location, until its appointment.
func appointmentBucket(now time.Time, appt *time.Time) (string, int) {
	if appt == nil {
		return "No appointment", 1_000_000
	}
	days := calendarDays(now, appt.In(now.Location()))
	switch {
	case appt.Before(now):
		return "Overdue", -1
	case days == 0:
		return "Today", 0
	case days == 1:
		return "Tomorrow", 1
	default:
		return fmt.Sprintf("In %d days", days), days
	}
}

func calendarDays(from, to time.Time) int {
	midnight := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	// rounding absorbs 23h/25h days around DST switches
	return int((midnight(to).Sub(midnight(from)) + 12*time.Hour) / (24 * time.Hour))
}

func (h *IntegrationsHandler) sendMyLeadsDigest(ctx context.Context, chatID int64) {
	emp, err := h.Employees.GetByChatID(ctx, chatID)
	if err != nil || emp == nil {
		_ = h.TG.SendMessage(chatID, "This chat is not linked. Use /link first.")
		return
	}
	acting := models.ActingContext{UserID: emp.ID, OrganizationID: emp.OrganizationID, IsAdmin: emp.IsAdminRights}
	leads, err := h.Leads.ListAssigned(ctx, acting, emp.ID, digestLimit, 0)
	if err != nil {
		log.Printf("[tg][digest] employee=%d: %v", emp.ID, err)
		_ = h.TG.SendMessage(chatID, "Could not load your leads.")
		return
	}
	_ = h.TG.SendReplyKeyboard(chatID, leadsDigest(h.now(), leads), [][]string{{btnMyLeads}})
}

func leadsDigest(now time.Time, leads []*models.LeadRecord) string {
	if len(leads) == 0 {
		return "You have no assigned leads."
	}
	type group struct {
		name  string
		key   int
		items []*models.LeadRecord
	}
	byName := map[string]*group{}
	for _, l := range leads {
		name, key := appointmentBucket(now, l.AppointmentDate)
		g := byName[name]
		if g == nil {
			g = &group{name: name, key: key}
			byName[name] = g
		}
		g.items = append(g.items, l)
	}
	groups := make([]*group, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })

	var b strings.Builder
	b.WriteString("📋 <b>My leads by appointment</b>\n")
	for _, g := range groups {
		b.WriteString("\n▸ <b>" + html.EscapeString(g.name) + "</b>\n")
		for _, l := range g.items {
			b.WriteString("• " + html.EscapeString(l.Name) + " (" + html.EscapeString(services.Label(l.Status)) + ")\n")
		}
	}
	return b.String()
}
