package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

const (
	ReplyEmployeeNotFound = "Funcionário não encontrado. Entre em contato com o RH para cadastro."
	ReplyInactive         = "Sua conta está inativa. Entre em contato com o RH."
	ReplyInternalError    = "Erro interno. Tente novamente."
)

func HelpReply() string {
	return "📋 *Comandos disponíveis:*\n\n" +
		"🟢 *entrada* - Marcar entrada\n" +
		"🔴 *saida* - Marcar saída\n" +
		"🟡 *pausa* - Iniciar pausa\n" +
		"🟢 *volta* - Voltar da pausa\n" +
		"⏱️ *horas* - Ver horas de hoje\n\n" +
		"Envie apenas a palavra do comando."
}

func LocationReceivedReply() string {
	return "📍 Localização recebida com sucesso!\n\n" +
		"Agora digite o comando desejado:\n" +
		"🟢 *entrada* - Marcar entrada\n" +
		"🔴 *saida* - Marcar saída\n" +
		"🟡 *pausa* - Iniciar pausa\n" +
		"🟢 *volta* - Voltar da pausa"
}

func locationNudge() string {
	return "\n\n📍 Da próxima vez envie a sua localização antes do comando."
}

// RejectionReply is the chat answer for an illegal transition.
func RejectionReply(name string, r Reason) string {
	switch r {
	case AlreadyClockedIn:
		return fmt.Sprintf("%s, você já registrou entrada hoje!", name)
	case NotClockedIn:
		return fmt.Sprintf("%s, você precisa registrar entrada primeiro!", name)
	case AlreadyClockedOut:
		return fmt.Sprintf("%s, você já registrou saída hoje!", name)
	case NotWorking:
		return fmt.Sprintf("%s, você precisa estar trabalhando para fazer pausa!", name)
	case AlreadyOnBreak:
		return fmt.Sprintf("%s, você já está em pausa!", name)
	case NotOnBreak:
		return fmt.Sprintf("%s, você não está em pausa!", name)
	}
	return HelpReply()
}

func OutsideHoursReply(w WorkWindow, local time.Time) string {
	return fmt.Sprintf("⏰ Fora do horário de trabalho!\n📅 Horário permitido: %s às %s\n🕐 Horário atual: %s\n\n"+
		"Tente registrar entrada dentro do horário de trabalho.",
		w.Start, w.End, TimeOfDayOf(local))
}

// ConfirmationReply confirms a recorded event. withLocation=false appends a
// nudge to share the location next time.
func ConfirmationReply(name string, t types.RecordType, local time.Time, withLocation bool) string {
	var head string
	switch t {
	case types.RecordEntrada:
		head = "✅ Entrada registrada com sucesso!"
	case types.RecordSaida:
		head = "✅ Saída registrada com sucesso!"
	case types.RecordPausa:
		head = "⏸️ Pausa iniciada!"
	case types.RecordVolta:
		head = "▶️ Volta da pausa registrada!"
	}
	msg := fmt.Sprintf("%s\n⏰ Horário: %s\n👤 Funcionário: %s", head, local.Format("15:04"), name)
	if withLocation {
		msg += "\n📍 Localização registrada"
	} else {
		msg += locationNudge()
	}
	return msg
}

// RecordMessage is the free-text note stored with each record.
func RecordMessage(t types.RecordType) string {
	switch t {
	case types.RecordEntrada:
		return "Entrada registrada via WhatsApp"
	case types.RecordSaida:
		return "Saída registrada via WhatsApp"
	case types.RecordPausa:
		return "Pausa iniciada via WhatsApp"
	case types.RecordVolta:
		return "Volta da pausa via WhatsApp"
	}
	return ""
}

func SummaryReply(name string, s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏱️ *Horas de hoje* - %s\n\n", name)
	fmt.Fprintf(&b, "💼 Trabalhado: %s\n", FormatDuration(s.Worked))
	fmt.Fprintf(&b, "☕ Pausas: %s\n", FormatDuration(s.Break))
	fmt.Fprintf(&b, "📌 Estado atual: %s", statusLabel(s.Status))
	return b.String()
}

func statusLabel(s types.EmployeeStatus) string {
	switch s {
	case types.StatusWorking:
		return "a trabalhar"
	case types.StatusOnBreak:
		return "em pausa"
	case types.StatusClockedOut:
		return "saída registrada"
	}
	return "sem registos hoje"
}

// FormatDuration renders whole minutes as "1h45min".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d / time.Minute)
	return fmt.Sprintf("%dh%02dmin", mins/60, mins%60)
}

func ClockInReminder(name string, due TimeOfDay) string {
	return fmt.Sprintf("🌅 *Bom dia, %s!*\n\n⏰ São %s e é hora de registar a tua entrada.\n\n"+
		"👉 Envia simplesmente: *entrada*\n\nTenha um excelente dia de trabalho! 💪", name, due)
}

func ClockOutReminder(name string, due TimeOfDay) string {
	return fmt.Sprintf("🌆 *Boa tarde, %s!*\n\n⏰ São %s e ainda não registaste a tua saída.\n\n"+
		"👉 Não te esqueças de enviar: *saida*\n\nSe ainda estás a trabalhar, podes ignorar esta mensagem. 😊", name, due)
}

func BreakReminder(name string, elapsed time.Duration) string {
	return fmt.Sprintf("☕ *%s*, estás em pausa há %d minutos.\n\n👉 Quando voltares, envia: *volta*",
		name, int(elapsed/time.Minute))
}
