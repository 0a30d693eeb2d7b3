package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

// SendPaymentRemindersArgs configures a reminder batch
type SendPaymentRemindersArgs struct {
	// Days is the due-date lookahead window
	Days int `json:"days"`
	// MemberIDs restricts the batch; empty means everyone with a due
	// installment. Retry tasks carry the failed subset here.
	MemberIDs    []uint `json:"member_ids"`
	AttemptCount int    `json:"attempt_count"`
}

// SendPaymentRemindersTaskDef notifies members about upcoming
// installments on their preferred channel
type SendPaymentRemindersTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendPaymentRemindersTaskDef) TaskID() string {
	return "send_payment_reminders"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendPaymentRemindersTaskDef) CreateTask(args SendPaymentRemindersArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends one reminder per member covering all of that
// member's installments inside the window. Members whose delivery fails
// are rescheduled as a smaller retry batch until MaxAttempt is reached.
func (t *SendPaymentRemindersTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var args SendPaymentRemindersArgs
	if err := json.Unmarshal(argsBytes, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	if args.Days <= 0 {
		args.Days = 7
	}

	installments := services.NewInstallmentService(db)
	due, err := installments.ListDue(args.Days)
	if err != nil {
		return nil, err
	}

	restrict := make(map[uint]bool, len(args.MemberIDs))
	for _, id := range args.MemberIDs {
		restrict[id] = true
	}

	byMember := make(map[uint][]models.InstallmentPayment)
	for _, p := range due {
		memberID := p.InstallmentPlan.MemberID
		if len(restrict) > 0 && !restrict[memberID] {
			continue
		}
		byMember[memberID] = append(byMember[memberID], p)
	}

	successCount := 0
	skippedCount := 0
	var failedMembers []uint
	var failures []string

	for memberID, payments := range byMember {
		var member models.Member
		if err := db.First(&member, memberID).Error; err != nil {
			failures = append(failures, fmt.Sprintf("member %d: %v", memberID, err))
			failedMembers = append(failedMembers, memberID)
			continue
		}

		var pref models.MemberNotifPreference
		err := db.Where("member_id = ?", memberID).First(&pref).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// No preference means default email delivery
				pref.Channel = models.NotificationChannelEmail
			} else {
				failures = append(failures, fmt.Sprintf("member %d: preference lookup: %v", memberID, err))
				failedMembers = append(failedMembers, memberID)
				continue
			}
		}

		var sendErr error
		switch pref.Channel {
		case models.NotificationChannelEmail:
			sendErr = sendEmailReminder(&member, payments)
		case models.NotificationChannelWhatsapp:
			sendErr = sendWhatsappReminder(&member, payments, pref)
		case models.NotificationChannelNone:
			skippedCount++
			continue
		default:
			log.Printf("Unsupported notification channel %s for member %d", pref.Channel, memberID)
			skippedCount++
			continue
		}

		if sendErr != nil {
			log.Printf("Failed to remind member %d via %s: %v", memberID, pref.Channel, sendErr)
			failures = append(failures, fmt.Sprintf("member %d: %v", memberID, sendErr))
			failedMembers = append(failedMembers, memberID)
		} else {
			successCount++
		}
	}

	result := map[string]interface{}{
		"total":   len(byMember),
		"success": successCount,
		"skipped": skippedCount,
		"failure": len(failedMembers),
	}

	if len(failedMembers) > 0 {
		result["errors"] = failures

		if args.AttemptCount < task.MaxAttempt {
			retry := args
			retry.MemberIDs = failedMembers
			retry.AttemptCount = args.AttemptCount + 1

			newTask, err := BuildScheduledTask(t.TaskID(), retry, time.Now().Add(5*time.Minute), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
			if err == nil {
				db.Create(newTask)
			} else {
				log.Printf("Failed to create retry task: %v", err)
			}
		} else {
			return result, fmt.Errorf("max attempts reached, failed to deliver to %d members", len(failedMembers))
		}
	}

	return result, nil
}

// SendPaymentRemindersTask is the singleton instance
var SendPaymentRemindersTask = &SendPaymentRemindersTaskDef{}

func reminderBody(member *models.Member, payments []models.InstallmentPayment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nYou have %d upcoming installment payment(s):\n", member.FullName, len(payments))
	total := 0.0
	for _, p := range payments {
		fmt.Fprintf(&b, "  - Installment %d: %.2f due %s\n", p.InstallmentNumber, p.Amount, p.DueDate.Format("2006-01-02"))
		total += p.Amount
	}
	fmt.Fprintf(&b, "\nTotal due: %.2f\n", total)
	return b.String()
}

func sendEmailReminder(member *models.Member, payments []models.InstallmentPayment) error {
	emailService := services.NewEmailService()
	return emailService.SendEmail([]string{member.Email}, "Upcoming installment payment", reminderBody(member, payments))
}

func sendWhatsappReminder(member *models.Member, payments []models.InstallmentPayment, pref models.MemberNotifPreference) error {
	whatsapp := services.NewWhatsappService()

	var chatID string
	if pref.WhatsappTargetType == models.WhatsappTargetTypeGroup {
		chatID = pref.WhatsappGroupID
		if chatID == "" {
			return fmt.Errorf("group ID is empty")
		}
	} else {
		chatID = member.Phone
		if chatID == "" {
			return fmt.Errorf("member has no phone number")
		}
	}

	return whatsapp.SendMessage(chatID, reminderBody(member, payments))
}
