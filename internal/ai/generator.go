// internal/ai/generator.go
package ai

import (
	"fmt"

	"github.com/postpilot/postpilot-backend/internal/model"
)

// Generator is the content-generation oracle. Implementations must return a
// generation error for any provider-side problem; callers treat all
// failures uniformly.
type Generator interface {
	GenerateContent(prompt string, maxTokens int) (string, error)
}

// BuildAssetPrompt enriches the campaign prompt with instructions for the
// asset's file type.
func BuildAssetPrompt(basePrompt string, asset *model.Asset) string {
	if basePrompt == "" {
		basePrompt = "Create an engaging social media post."
	}

	assetDescription := fmt.Sprintf("Asset: %s (Type: %s)", asset.Name, asset.FileType)

	var instructions string
	switch asset.FileType {
	case model.FileTypeVideo:
		instructions = `Create a post for a video asset. The video file is: ` + assetDescription + `

Instructions:
- Create engaging content that describes what viewers can expect from the video
- Include a call-to-action to watch the video
- Make it professional
- Include relevant hashtags
- Keep it under 300 characters for optimal engagement`
	case model.FileTypeImage:
		instructions = `Create a post for an image asset. The image file is: ` + assetDescription + `

Instructions:
- Create engaging content that complements the image
- Describe what the image shows or represents
- Include a call-to-action if appropriate
- Make it professional
- Include relevant hashtags
- Keep it under 300 characters for optimal engagement`
	default:
		instructions = `Create a post for an asset. The asset file is: ` + assetDescription + `

Instructions:
- Create engaging content related to this asset
- Make it professional
- Include relevant hashtags
- Keep it under 300 characters for optimal engagement`
	}

	return basePrompt + "\n\n" + instructions
}
