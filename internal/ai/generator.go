package ai

import (
	"context"
	"fmt"
	"strings"
)

type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Image(ctx context.Context, prompt string) ([]byte, error)
}

// Generator produces listing copy and product shots.
type Generator struct {
	model Model
}

func NewGenerator(model Model) *Generator {
	return &Generator{model: model}
}

const descriptionPrompt = `Write a concise and professional product description for an e-commerce listing.

Product Name: %s
Category: %s

Keep it simple, engaging, and highlight its primary features or benefits.
Avoid technical jargon and keep it customer-friendly.
Limit the description to 250 characters maximum.`

const imagePrompt = `Generate a highly realistic, professional-grade e-commerce product image.

Product Details:
- Category: %s
- Name: '%s'
- Description: %s

Requirements:
  - Use a clean, minimalistic, white or very light grey background.
  - Ensure the product is well-lit with soft, natural-looking lighting.
  - Add realistic shadows and soft reflections to ground the product naturally.
  - No humans, brand logos, watermarks, or text overlays should be visible.
  - Showcase the product from its most flattering angle that highlights key features.
  - Ensure the product occupies a prominent position in the frame, centered or slightly off-centered.
  - Maintain a high resolution and sharpness, ensuring all textures, colors, and details are clear.
  - Follow the typical visual style of top e-commerce websites.
  - Make the product appear life-like and professionally photographed in a studio setup.
  - The final image should look immediately ready for use on an e-commerce website without further editing.`

func (g *Generator) GenerateDescription(ctx context.Context, name, category string) (string, error) {
	text, err := g.model.Complete(ctx, fmt.Sprintf(descriptionPrompt, name, category))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) GenerateImage(ctx context.Context, name, category, description string) ([]byte, error) {
	return g.model.Image(ctx, fmt.Sprintf(imagePrompt, category, name, description))
}
