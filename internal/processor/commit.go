package processor

import (
	"context"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/events"
	"github.com/MikeSquared-Agency/scribe/internal/record"
)

func (p *Processor) handleButton(ctx context.Context, b events.Button) {
	if err := p.messenger.Acknowledge(ctx, b.CallbackID); err != nil {
		p.logger.Warn("callback ack failed", "callback_id", b.CallbackID, "error", err)
	}

	switch b.Action {
	case events.ActionClear:
		p.clear(ctx, b.Source)
	case events.ActionCommit:
		p.commit(ctx, b.Source)
	default:
		p.logger.Debug("ignoring unknown button", "action", string(b.Action), "conversation", b.Conversation)
	}
}

func (p *Processor) clear(ctx context.Context, src events.Source) {
	dropped := p.drafts.Len(src.Conversation)
	p.drafts.Clear(src.Conversation)
	p.logger.Info("draft cleared", "conversation", src.Conversation, "fragments", dropped)

	p.publish(SubjectDraftCleared, map[string]any{
		"conversation": string(src.Conversation),
		"fragments":    dropped,
	})
	p.edit(ctx, src, msgCleared)
}

// commit drains the draft before the sink call, so fragments arriving while
// the sink is busy start a fresh draft. A failed sink call does not restore
// the drained fragments.
func (p *Processor) commit(ctx context.Context, src events.Source) {
	if p.drafts.IsEmpty(src.Conversation) {
		p.edit(ctx, src, msgEmptyDraft)
		return
	}

	fragments := p.drafts.SnapshotAndClear(src.Conversation)
	if len(fragments) == 0 {
		// Another press drained it between the check and the drain.
		p.edit(ctx, src, msgEmptyDraft)
		return
	}

	commitID := uuid.New().String()
	rec := record.Compose(p.title, p.category, fragments, p.now())

	if err := p.sink.Append(ctx, rec); err != nil {
		p.logger.Error("record sink failed, draft discarded",
			"commit_id", commitID,
			"conversation", src.Conversation,
			"fragments", len(fragments),
			"body", rec.Body,
			"error", err,
		)
		p.publish(SubjectRecordFailed, map[string]any{
			"commit_id":    commitID,
			"conversation": string(src.Conversation),
			"body":         rec.Body,
			"error":        err.Error(),
		})
		if p.alerter != nil {
			if aerr := p.alerter.AlertLostRecord(ctx, commitID, string(src.Conversation), rec.Body, err); aerr != nil {
				p.logger.Warn("lost record alert failed", "commit_id", commitID, "error", aerr)
			}
		}
		p.edit(ctx, src, msgCommitError)
		return
	}

	p.logger.Info("record committed",
		"commit_id", commitID,
		"conversation", src.Conversation,
		"fragments", len(fragments),
	)
	p.publish(SubjectRecordCommitted, map[string]any{
		"commit_id":    commitID,
		"conversation": string(src.Conversation),
		"fragments":    len(fragments),
		"title":        rec.Title,
		"category":     rec.Category,
		"created_at":   record.FormatTime(rec.CreatedAt, p.location),
	})
	p.edit(ctx, src, msgCommitted)
}
