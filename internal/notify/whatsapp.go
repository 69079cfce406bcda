// Package notify builds wa.me deep links for messages a recruiter sends by hand.
package notify

import (
	"fmt"
	"net/url"
	"strings"
)

const waBaseURL = "https://wa.me/"

// NormalizePhone keeps digits only and rewrites a local leading 0 to the 62 country code.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}

// Link returns an empty string when the phone has no digits. Spaces are sent as %20;
// some WhatsApp clients show a literal plus.
func Link(phone, text string) string {
	number := NormalizePhone(phone)
	if number == "" {
		return ""
	}
	return waBaseURL + number + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

type Result struct {
	Name            string
	Phone           string
	Role            string
	LogicScore      float64
	CultureFitScore int
	Status          string
	Summary         string
}

func ResultMessage(company string, r Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\n\n", r.Name)
	fmt.Fprintf(&b, "Terima kasih telah mengikuti seleksi *%s*.\n\n", r.Role)
	b.WriteString("Berikut hasil evaluasi Anda:\n")
	fmt.Fprintf(&b, "- Logic Score: %s/10\n", formatScore(r.LogicScore))
	fmt.Fprintf(&b, "- Culture Fit: %d%%\n\n", r.CultureFitScore)
	fmt.Fprintf(&b, "Status Lamaran: *%s*\n\n", r.Status)
	if s := strings.TrimSpace(r.Summary); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Terima Kasih,\nTim Recruitment %s", company)
	return b.String()
}

func ResultLink(company string, r Result) string {
	return Link(r.Phone, ResultMessage(company, r))
}

func InvitationMessage(company, name, roleLabel, inviteURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\n\n", name)
	fmt.Fprintf(&b, "%s mengundang Anda untuk mengikuti *Seleksi Digital*:\n*%s*\n\n", company, roleLabel)
	fmt.Fprintf(&b, "Klik tautan khusus di bawah ini untuk memulai tes:\n%s\n\n", inviteURL)
	b.WriteString("PENTING:\n")
	b.WriteString("1. Tautan ini bersifat PRIBADI (Terkunci atas nama Anda).\n")
	b.WriteString("2. Tautan hanya bisa digunakan SATU KALI.\n")
	b.WriteString("3. Pastikan koneksi internet lancar.\n\n")
	b.WriteString("Selamat mengerjakan!")
	return b.String()
}

func InvitationLink(company, phone, name, roleLabel, inviteURL string) string {
	return Link(phone, InvitationMessage(company, name, roleLabel, inviteURL))
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
