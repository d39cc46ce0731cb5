package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

// SlackNotifier posts failed generation runs to a Slack channel so an
// operator sees broken schedules without polling the audit log.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	log     zerolog.Logger
}

func NewSlackNotifier(token, channel string, log zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
		log:     log,
	}
}

// GenerationFailed implements scheduler.Notifier. Delivery problems are
// logged and swallowed; alerting must never affect scheduling.
func (n *SlackNotifier) GenerationFailed(rec *models.GenerationRecord) {
	attachment := slack.Attachment{
		Color: "#FF0000",
		Title: fmt.Sprintf("Generation failed: %s/%d", rec.ScheduleKind, rec.ScheduleID),
		Text:  rec.Detail,
		Fields: []slack.AttachmentField{
			{
				Title: "Trigger",
				Value: string(rec.Trigger),
				Short: true,
			},
			{
				Title: "Triggered At",
				Value: rec.TriggeredAt.Format(time.RFC3339),
				Short: true,
			},
			{
				Title: "Run ID",
				Value: rec.RunID,
				Short: true,
			},
		},
		Footer: "RentMaster Scheduler",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	_, _, err := n.client.PostMessage(
		n.channel,
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		n.log.Warn().Err(err).Str("run_id", rec.RunID).Msg("failed to post slack notification")
	}
}
