package inference

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/royale-rl/arena"
)

// Frames supplies the raw images the workflows run on
type Frames interface {
	// Capture returns a screenshot of the playfield
	Capture(context.Context) ([]byte, error)
	// CaptureCards returns one image per hand slot
	CaptureCards(context.Context) ([][]byte, error)
	// Elixir reads the elixir counter
	Elixir(context.Context) (int, error)
}

// Workflows is the part of Client the perception pipeline needs
type Workflows interface {
	RunWorkflow(ctx context.Context, workspace, workflow string, image []byte) ([]Prediction, error)
}

// Perception implements arena.Perception on top of two workflows, one
// for the units on the field and one for the card slots
type Perception struct {
	workflows      Workflows
	frames         Frames
	troopWorkspace string
	cardWorkspace  string
	log            logrus.FieldLogger
}

var _ arena.Perception = &Perception{}

func NewPerception(workflows Workflows, frames Frames, troopWorkspace, cardWorkspace string, log logrus.FieldLogger) *Perception {
	return &Perception{
		workflows:      workflows,
		frames:         frames,
		troopWorkspace: troopWorkspace,
		cardWorkspace:  cardWorkspace,
		log:            log,
	}
}

func (p *Perception) Detect(ctx context.Context) ([]arena.Detection, error) {
	img, err := p.frames.Capture(ctx)
	if err != nil {
		return nil, err
	}
	preds, err := p.workflows.RunWorkflow(ctx, p.troopWorkspace, TroopWorkflow, img)
	if err != nil {
		return nil, err
	}
	out := make([]arena.Detection, 0, len(preds))
	for _, pred := range preds {
		if pred.Class == "" {
			continue
		}
		out = append(out, arena.NewDetection(pred.Class, pred.X, pred.Y))
	}
	return out, nil
}

func (p *Perception) Elixir(ctx context.Context) (int, error) {
	return p.frames.Elixir(ctx)
}

// Hand classifies every slot. A slot whose workflow fails or finds
// nothing is reported as arena.UnknownCard.
func (p *Perception) Hand(ctx context.Context) ([]string, error) {
	imgs, err := p.frames.CaptureCards(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]string, len(imgs))
	for i, img := range imgs {
		cards[i] = arena.UnknownCard
		preds, err := p.workflows.RunWorkflow(ctx, p.cardWorkspace, CardWorkflow, img)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.WithFields(logrus.Fields{"slot": i, "error": err}).Warn("card classification failed")
			continue
		}
		if len(preds) > 0 && preds[0].Class != "" {
			cards[i] = preds[0].Class
		}
	}
	return cards, nil
}
