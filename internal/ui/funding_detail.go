package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"localfund/internal/model"
	"localfund/internal/receipt"
	"localfund/internal/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FundingDetailModel shows one of the member's fundings with its QR receipt.
type FundingDetailModel struct {
	funding model.FundingRecord
}

func NewFundingDetailModel(f model.FundingRecord) *FundingDetailModel {
	return &FundingDetailModel{funding: f}
}

// View renders the funding detail.
func (m *FundingDetailModel) View(width, height int) string {
	f := m.funding
	header := renderShortcuts("w save receipt png  b back", width)

	fields := []string{
		renderField("Restaurant", f.RestaurantName),
		renderField("Amount", util.FormatKRW(f.TotalAmount)),
		renderField("Method", f.PaymentMethod),
		renderField("Paid", util.FormatTimestamp(f.CreatedAt)),
		renderField("Payment", f.ImpUID),
		renderField("Order", f.MerchantUID),
		LabelStyle.Render("Status:") + " " + statusColor(string(f.Status)).Render(string(f.Status)),
	}
	sections := []string{strings.Join(fields, "\n")}

	if items := model.DecodeLineItems(f.MenuInfo); len(items) > 0 {
		lines := []string{LabelStyle.Render("Items")}
		for _, it := range items {
			lines = append(lines, NormalRowStyle.Render(fmt.Sprintf("  %s × %d  %s", it.Name, it.Quantity, util.FormatKRW(it.Subtotal()))))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, renderDivider(width))
	if qr := receipt.Terminal(f); qr != "" {
		sections = append(sections, LabelStyle.Render("Receipt"), qr)
	}

	info := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, info)
}

// receiptPath is where the PNG receipt of f is written.
func receiptPath(dir string, f model.FundingRecord) string {
	return filepath.Join(dir, fmt.Sprintf("funding-%d.png", f.ID))
}

func writeReceiptCmd(dir string, f model.FundingRecord) tea.Cmd {
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to create receipt directory: %w", err)}
		}
		path := receiptPath(dir, f)
		if err := receipt.WriteFile(f, path); err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.InfoMsg{Text: "Receipt saved to " + path}
	}
}
