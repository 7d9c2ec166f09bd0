package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/creation-studio/config"
	"github.com/d60-Lab/creation-studio/internal/model"
	"github.com/d60-Lab/creation-studio/internal/policy"
	"github.com/d60-Lab/creation-studio/internal/provider"
	"github.com/d60-Lab/creation-studio/internal/repository"
	"github.com/d60-Lab/creation-studio/pkg/errcode"
	"github.com/d60-Lab/creation-studio/pkg/logger"
	"github.com/d60-Lab/creation-studio/pkg/metrics"
)

const (
	minArticleChars    = 100
	blogTitleMaxTokens = 100
	resumeMaxTokens    = 1500

	folderGeneratedImages   = "ai-generated-images"
	folderBackgroundRemoval = "background-removal-images"

	promptBackgroundRemoval = "Remove background from image"
	promptResumeReview      = "Review The Uploaded Resume"
)

// Caller is the authenticated user together with the usage snapshot taken by the gate.
type Caller struct {
	UserID string
	Usage  Usage
}

type ArticleInput struct {
	Prompt string
	Length int
}

type ImageInput struct {
	Prompt  string
	Publish bool
}

// GenerationService 计量的 AI 操作：鉴权、预占额度、调用外部服务、落库
type GenerationService interface {
	GenerateArticle(ctx context.Context, caller Caller, in ArticleInput) (string, error)
	GenerateBlogTitle(ctx context.Context, caller Caller, prompt string) (string, error)
	GenerateImage(ctx context.Context, caller Caller, in ImageInput) (string, error)
	RemoveBackground(ctx context.Context, caller Caller, image []byte) (string, error)
	RemoveObject(ctx context.Context, caller Caller, image []byte, object string) (string, error)
	ReviewResume(ctx context.Context, caller Caller, document []byte) (string, error)
}

// Providers groups the external collaborators.
type Providers struct {
	Text   provider.TextGenerator
	Images provider.ImageGenerator
	Host   provider.ImageHost
	PDF    provider.TextExtractor
}

type generationService struct {
	creations CreationService
	ledger    repository.UsageLedger
	providers Providers
	timeouts  config.TimeoutConfig
	limit     int
}

func NewGenerationService(creations CreationService, ledger repository.UsageLedger, providers Providers, timeouts config.TimeoutConfig, freeLimit int) GenerationService {
	return &generationService{
		creations: creations,
		ledger:    ledger,
		providers: providers,
		timeouts:  timeouts,
		limit:     freeLimit,
	}
}

// run is the shared pipeline. A metered call reserves one unit of free usage
// before work starts and gives it back if work or persistence fails.
func (s *generationService) run(ctx context.Context, op policy.Operation, caller Caller, work func(context.Context) (*model.Creation, error)) (string, error) {
	d := policy.Authorize(op, caller.Usage.Plan, caller.Usage.FreeUsage, s.limit)
	if !d.Allowed {
		metrics.GateDenied(string(op), string(d.Reason))
		return "", DenialError(d)
	}

	if d.Metered {
		if err := s.reserve(ctx, op, caller.UserID); err != nil {
			return "", err
		}
	}

	c, err := work(ctx)
	if err == nil {
		c.UserID = caller.UserID
		err = s.creations.Create(ctx, c)
	}
	if err != nil {
		if d.Metered {
			s.release(ctx, caller.UserID)
		}
		logger.L().Warn("generation failed",
			zap.String("operation", string(op)),
			zap.String("user_id", caller.UserID),
			zap.Error(err),
		)
		return "", err
	}
	return c.Content, nil
}

// DenialError maps a policy denial to its response error.
func DenialError(d policy.Decision) error {
	if d.Reason == policy.ReasonFreeLimit {
		return errcode.FreeLimit()
	}
	return errcode.PremiumRequired()
}

func (s *generationService) reserve(ctx context.Context, op policy.Operation, userID string) error {
	ctx, cancel := withTimeout(ctx, s.timeouts.Ledger)
	defer cancel()
	_, err := s.ledger.Reserve(ctx, userID, s.limit)
	switch {
	case errors.Is(err, repository.ErrFreeLimitReached):
		metrics.GateDenied(string(op), string(policy.ReasonFreeLimit))
		return errcode.FreeLimit()
	case err != nil:
		return errcode.Persistence("Failed to record usage", err)
	}
	return nil
}

// release runs even if the request context is already done.
func (s *generationService) release(ctx context.Context, userID string) {
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), s.timeouts.Ledger)
	defer cancel()
	if err := s.ledger.Release(ctx, userID); err != nil {
		logger.L().Error("release usage reservation", zap.String("user_id", userID), zap.Error(err))
	}
}

// external bounds one outbound call and classifies its failure.
func external[T any](ctx context.Context, d time.Duration, what string, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	v, err := call(ctx)
	if err != nil {
		var zero T
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, errcode.Timeout(err)
		}
		return zero, errcode.Upstream(fmt.Sprintf("%s: %v", what, err), err)
	}
	return v, nil
}

func (s *generationService) GenerateArticle(ctx context.Context, caller Caller, in ArticleInput) (string, error) {
	return s.run(ctx, policy.OpArticle, caller, func(ctx context.Context) (*model.Creation, error) {
		content, err := external(ctx, s.timeouts.TextGen, "Failed to generate article", func(ctx context.Context) (string, error) {
			return s.providers.Text.Generate(ctx, provider.TextRequest{
				Prompt:    articlePrompt(in.Prompt, in.Length),
				MaxTokens: articleMaxTokens(in.Length),
			})
		})
		if err != nil {
			return nil, err
		}
		if len(content) < minArticleChars {
			return nil, errcode.Upstream("Generated content appears incomplete", nil)
		}
		return &model.Creation{Prompt: in.Prompt, Content: content, Type: model.CreationArticle}, nil
	})
}

func (s *generationService) GenerateBlogTitle(ctx context.Context, caller Caller, prompt string) (string, error) {
	return s.run(ctx, policy.OpBlogTitle, caller, func(ctx context.Context) (*model.Creation, error) {
		content, err := external(ctx, s.timeouts.TextGen, "Failed to generate blog titles", func(ctx context.Context) (string, error) {
			return s.providers.Text.Generate(ctx, provider.TextRequest{Prompt: prompt, MaxTokens: blogTitleMaxTokens})
		})
		if err != nil {
			return nil, err
		}
		return &model.Creation{Prompt: prompt, Content: content, Type: model.CreationBlogTitle}, nil
	})
}

func (s *generationService) GenerateImage(ctx context.Context, caller Caller, in ImageInput) (string, error) {
	return s.run(ctx, policy.OpImage, caller, func(ctx context.Context) (*model.Creation, error) {
		img, err := external(ctx, s.timeouts.ImageGen, "Failed to generate image", func(ctx context.Context) ([]byte, error) {
			return s.providers.Images.GenerateImage(ctx, in.Prompt)
		})
		if err != nil {
			return nil, err
		}
		hosted, err := s.upload(ctx, img, provider.UploadOptions{Folder: folderGeneratedImages})
		if err != nil {
			return nil, err
		}
		return &model.Creation{Prompt: in.Prompt, Content: hosted.SecureURL, Type: model.CreationImage, Publish: in.Publish}, nil
	})
}

func (s *generationService) RemoveBackground(ctx context.Context, caller Caller, image []byte) (string, error) {
	return s.run(ctx, policy.OpBackgroundRemoval, caller, func(ctx context.Context) (*model.Creation, error) {
		hosted, err := s.upload(ctx, image, provider.UploadOptions{
			Folder:         folderBackgroundRemoval,
			Transformation: "e_background_removal",
		})
		if err != nil {
			return nil, err
		}
		return &model.Creation{Prompt: promptBackgroundRemoval, Content: hosted.SecureURL, Type: model.CreationBackgroundRemoval}, nil
	})
}

func (s *generationService) RemoveObject(ctx context.Context, caller Caller, image []byte, object string) (string, error) {
	return s.run(ctx, policy.OpObjectRemoval, caller, func(ctx context.Context) (*model.Creation, error) {
		hosted, err := s.upload(ctx, image, provider.UploadOptions{Folder: folderGeneratedImages})
		if err != nil {
			return nil, err
		}
		url, err := s.providers.Host.TransformURL(hosted.PublicID, "e_gen_remove:prompt_"+object)
		if err != nil {
			return nil, errcode.Upstream("Failed to process image: "+err.Error(), err)
		}
		return &model.Creation{
			Prompt:  fmt.Sprintf("Removed %s from image", object),
			Content: url,
			Type:    model.CreationImage,
		}, nil
	})
}

func (s *generationService) ReviewResume(ctx context.Context, caller Caller, document []byte) (string, error) {
	return s.run(ctx, policy.OpResumeReview, caller, func(ctx context.Context) (*model.Creation, error) {
		text, err := s.extractText(ctx, document)
		if err != nil {
			return nil, err
		}
		review, err := external(ctx, s.timeouts.TextGen, "Failed to review resume", func(ctx context.Context) (string, error) {
			return s.providers.Text.Generate(ctx, provider.TextRequest{Prompt: resumePrompt(text), MaxTokens: resumeMaxTokens})
		})
		if err != nil {
			return nil, err
		}
		return &model.Creation{Prompt: promptResumeReview, Content: review, Type: model.CreationResumeReview}, nil
	})
}

func (s *generationService) upload(ctx context.Context, data []byte, opts provider.UploadOptions) (*provider.HostedImage, error) {
	return external(ctx, s.timeouts.Upload, "Failed to process image", func(ctx context.Context) (*provider.HostedImage, error) {
		return s.providers.Host.Upload(ctx, bytes.NewReader(data), opts)
	})
}

// extractText failures are the client's document, not an upstream outage.
func (s *generationService) extractText(ctx context.Context, document []byte) (string, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.PDFExtract)
	defer cancel()
	text, err := s.providers.PDF.ExtractText(ctx, document)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "", errcode.Timeout(err)
	case errors.Is(err, provider.ErrNoText):
		return "", errcode.Validation("Could not extract text from PDF. Please ensure the PDF contains readable text.")
	case err != nil:
		return "", errcode.New(errcode.KindValidation,
			"Failed to process PDF file. Please ensure it's a valid PDF with readable text.", err)
	}
	return text, nil
}

func articleMaxTokens(length int) int {
	return int(math.Ceil(float64(length)*1.5)) + 500
}

func articlePrompt(topic string, length int) string {
	return fmt.Sprintf(`Write a comprehensive, well-structured article about %q.

Requirements:
- Target length: approximately %d words
- Include an engaging introduction
- Use clear headings and subheadings
- Provide detailed explanations and examples
- Include a strong conclusion
- Write in a professional, informative tone
- Ensure the article is complete and not cut off

Article topic: %s`, topic, length, topic)
}

func resumePrompt(text string) string {
	return `Review the following resume and provide constructive feedback on its strengths, weaknesses, and areas for improvement. Please structure your response with clear sections for:

1. Overall Impression
2. Strengths
3. Areas for Improvement
4. Specific Recommendations
5. Formatting and Presentation
6. Overall Rating (out of 10)

Resume Content:

` + text
}
