package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"localfund/internal/checkout"
	"localfund/internal/model"
	"localfund/internal/receipt"
	"localfund/internal/util"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// checkoutDoneMsg is the outcome of a provider checkout.
type checkoutDoneMsg struct {
	result checkout.Result
	err    error
}

// checkoutClosedMsg is sent when the buyer leaves a finished checkout.
type checkoutClosedMsg struct {
	result checkout.Result
}

const (
	consentTerms = iota
	consentSMS
	consentEmail
)

var consentLabels = []string{
	"I agree to the funding terms (required)",
	"Send me updates by SMS",
	"Send me updates by email",
}

// CheckoutModel drives a checkout.Flow from the keyboard.
type CheckoutModel struct {
	flow    *checkout.Flow
	fields  fieldSet
	consent checkout.Consent
	// focus spans the text fields followed by the consent toggles.
	focus   int
	method  int
	paying  bool
	timeout time.Duration
	spinner spinner.Model
}

// NewCheckoutModel opens the buyer form of flow, prefilled from member.
func NewCheckoutModel(flow *checkout.Flow, member model.Member, timeout time.Duration) *CheckoutModel {
	fields := []formField{
		newFormField("Name *", "Buyer name", 40),
		newFormField("Phone *", "010-0000-0000", 20),
		newFormField("Email *", "you@example.com", 80),
	}
	if flow.Order().Kind == checkout.KindSpecialty {
		fields = append(fields,
			newFormField("Zip code *", "06236", 10),
			newFormField("Address *", "Street address", 120),
			newFormField("Detail address *", "Apartment, floor", 80),
		)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &CheckoutModel{
		flow:    flow,
		fields:  newFieldSet(fields...),
		timeout: timeout,
		spinner: sp,
	}
	m.fields.set(0, member.Nickname)
	m.fields.set(2, member.Email)
	return m
}

func (m *CheckoutModel) textFields() int {
	return len(m.fields.fields)
}

func (m *CheckoutModel) setFocus(i int) {
	n := m.textFields() + len(consentLabels)
	m.focus = (i%n + n) % n
	if m.focus < m.textFields() {
		m.fields.focus(m.focus)
	} else {
		m.fields.fields[m.fields.focused].input.Blur()
	}
}

func (m *CheckoutModel) toggle() {
	switch m.focus - m.textFields() {
	case consentTerms:
		m.consent.Terms = !m.consent.Terms
	case consentSMS:
		m.consent.SMS = !m.consent.SMS
	case consentEmail:
		m.consent.Email = !m.consent.Email
	}
}

func (m *CheckoutModel) consentValue(i int) bool {
	switch i {
	case consentTerms:
		return m.consent.Terms
	case consentSMS:
		return m.consent.SMS
	}
	return m.consent.Email
}

// Buyer returns the form values.
func (m *CheckoutModel) Buyer() checkout.Buyer {
	b := checkout.Buyer{
		Name:  m.fields.value(0),
		Phone: m.fields.value(1),
		Email: m.fields.value(2),
	}
	if m.textFields() > 3 {
		b.ZipCode = m.fields.value(3)
		b.Address = m.fields.value(4)
		b.DetailAddress = m.fields.value(5)
	}
	return b
}

// focusInvalid moves focus to the field named by a validation error.
func (m *CheckoutModel) focusInvalid(err error) {
	var ve *checkout.ValidationError
	if !errors.As(err, &ve) {
		return
	}
	order := []string{"name", "phone", "email", "zip", "address", "detail"}
	for i, f := range order {
		if f == ve.Field && i < m.textFields() {
			m.setFocus(i)
			return
		}
	}
	if ve.Field == "terms" {
		m.setFocus(m.textFields() + consentTerms)
	}
}

// Update handles input for every step of the flow.
func (m CheckoutModel) Update(msg tea.Msg) (CheckoutModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkoutDoneMsg:
		m.paying = false
		if m.flow.State() == checkout.StateForm {
			m.setFocus(0)
		}
		return m, nil
	case spinner.TickMsg:
		if !m.paying {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.paying {
		return m, nil
	}

	switch m.flow.State() {
	case checkout.StateForm:
		return m.updateForm(keyMsg)
	case checkout.StateMethod:
		return m.updateMethod(keyMsg)
	case checkout.StateSuccess, checkout.StateUnrecorded:
		switch keyMsg.String() {
		case "enter", "esc", "q":
			result := m.flow.Result()
			return m, func() tea.Msg { return checkoutClosedMsg{result: result} }
		}
	}
	return m, nil
}

func (m CheckoutModel) updateForm(msg tea.KeyMsg) (CheckoutModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg {
			return model.FormCancelledMsg{}
		}
	case "ctrl+s":
		if err := m.flow.Submit(m.Buyer(), m.consent); err != nil {
			m.focusInvalid(err)
			return m, nil
		}
		m.method = 0
		return m, nil
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil
	case " ", "enter":
		if m.focus >= m.textFields() {
			m.toggle()
			return m, nil
		}
		if msg.String() == "enter" {
			m.setFocus(m.focus + 1)
			return m, nil
		}
	}
	if m.focus >= m.textFields() {
		return m, nil
	}
	return m, m.fields.update(msg)
}

func (m CheckoutModel) updateMethod(msg tea.KeyMsg) (CheckoutModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.method < len(checkout.Methods)-1 {
			m.method++
		}
	case "k", "up":
		if m.method > 0 {
			m.method--
		}
	case "esc", "b":
		_ = m.flow.Back()
		m.setFocus(0)
	case "enter":
		m.paying = true
		return m, tea.Batch(m.spinner.Tick, payCmd(m.flow, checkout.Methods[m.method], m.timeout))
	}
	return m, nil
}

// payCmd runs the provider checkout in the background.
func payCmd(flow *checkout.Flow, method checkout.Method, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		result, err := flow.Pay(ctx, method)
		return checkoutDoneMsg{result: result, err: err}
	}
}

// View renders the current step.
func (m *CheckoutModel) View(width, height int) string {
	order := m.flow.Order()
	var sections []string
	sections = append(sections, m.renderOrder(order))

	switch {
	case m.paying || m.flow.State() == checkout.StateInProgress:
		sections = append(sections, HelpDescStyle.Render(m.spinner.View()+" Waiting for "+checkout.Methods[m.method].Label()+"…"))
	case m.flow.State() == checkout.StateForm:
		sections = append(sections, m.renderForm())
	case m.flow.State() == checkout.StateMethod:
		sections = append(sections, m.renderMethods())
	case m.flow.State() == checkout.StateSuccess:
		sections = append(sections, m.renderSuccess())
	case m.flow.State() == checkout.StateUnrecorded:
		sections = append(sections,
			ErrorStyle.Render(m.flow.Message()),
			HelpDescStyle.Render("Keep this reference for support: "+m.flow.MerchantUID()),
			HelpDescStyle.Render("enter close"))
	}

	return PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))
}

func (m *CheckoutModel) renderOrder(order checkout.Order) string {
	lines := []string{LabelStyle.Render(order.ProductName())}
	if order.Kind == checkout.KindSpecialty {
		lines = append(lines, NormalRowStyle.Render(fmt.Sprintf("%d × %s", order.Quantity, util.FormatKRW(order.UnitPrice))))
	} else {
		for _, it := range order.Items {
			lines = append(lines, NormalRowStyle.Render(fmt.Sprintf("%s × %d  %s", it.Name, it.Quantity, util.FormatKRW(it.Subtotal()))))
		}
	}
	lines = append(lines, LabelStyle.Render("Total: ")+AmountStyle.Render(util.FormatKRW(order.Amount())))
	return strings.Join(lines, "\n")
}

func (m *CheckoutModel) renderForm() string {
	fields := m.fields.views()
	if m.focus >= m.textFields() {
		fields = m.unfocusedViews()
	}

	var toggles []string
	for i, label := range consentLabels {
		toggles = append(toggles, renderCheckbox(label, m.consentValue(i), m.focus == m.textFields()+i))
	}
	fields = append(fields, strings.Join(toggles, "\n"))

	if msg := m.flow.Message(); msg != "" {
		fields = append(fields, ErrorStyle.Render(msg))
	}
	fields = append(fields, HelpDescStyle.Render("tab next  space toggle  ctrl+s continue  esc cancel"))
	return strings.Join(fields, "\n")
}

func (m *CheckoutModel) unfocusedViews() []string {
	out := make([]string, len(m.fields.fields))
	for i, f := range m.fields.fields {
		out[i] = renderFormField(f.label, f.input, false)
	}
	return out
}

func (m *CheckoutModel) renderMethods() string {
	lines := []string{LabelStyle.Render("Choose a payment method")}
	for i, method := range checkout.Methods {
		style := NormalRowStyle
		if i == m.method {
			style = SelectedRowStyle
		}
		lines = append(lines, style.Render("  "+method.Label()+"  "))
	}
	lines = append(lines, "", HelpDescStyle.Render("enter pay  esc back to form"))
	return strings.Join(lines, "\n")
}

func (m *CheckoutModel) renderSuccess() string {
	result := m.flow.Result()
	lines := []string{SuccessStyle.Render("Payment complete. Thank you!")}
	lines = append(lines, renderField("Payment", result.ImpUID))
	switch {
	case result.Funding != nil:
		lines = append(lines, "", receipt.Terminal(*result.Funding))
	case result.Order != nil:
		lines = append(lines, renderField("Order", fmt.Sprintf("#%d", result.Order.ID)))
	}
	lines = append(lines, HelpDescStyle.Render("enter close"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
