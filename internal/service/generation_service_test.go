package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/creation-studio/internal/model"
	"github.com/d60-Lab/creation-studio/internal/provider"
	"github.com/d60-Lab/creation-studio/pkg/errcode"
)

func TestFreeUsageBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUsage(t, "u1", 9)

	caller := env.caller(t, "u1")
	require.Equal(t, 9, caller.Usage.FreeUsage)

	content, err := env.gen.GenerateArticle(ctx, caller, ArticleInput{Prompt: "go", Length: 800})
	require.NoError(t, err)
	assert.NotEmpty(t, content)
	assert.Equal(t, 10, env.usage(t, "u1"))

	caller = env.caller(t, "u1")
	_, err = env.gen.GenerateBlogTitle(ctx, caller, "go")
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.KindFreeLimit))
	assert.Equal(t, "Limit Reached Upgrade to continue.", errcode.From(err).Message)
	assert.Equal(t, 402, errcode.From(err).Status())
	assert.Equal(t, 10, env.usage(t, "u1"))
	assert.Len(t, env.creationsOf(t, "u1"), 1)
}

func TestPremiumBypassesFreeLimit(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsage(t, "p1", 50)

	caller := env.caller(t, "p1", "premium")
	for i := 0; i < 3; i++ {
		_, err := env.gen.GenerateBlogTitle(context.Background(), caller, "titles")
		require.NoError(t, err)
	}
	assert.Equal(t, 50, env.usage(t, "p1"))
}

func TestStaleSnapshotStillHonoursLimit(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsage(t, "u1", 10)

	stale := Caller{UserID: "u1", Usage: Usage{Plan: model.PlanFree, FreeUsage: 3}}
	_, err := env.gen.GenerateArticle(context.Background(), stale, ArticleInput{Prompt: "x", Length: 100})
	assert.True(t, errcode.Is(err, errcode.KindFreeLimit))
	assert.Equal(t, 0, env.text.calls)
	assert.Equal(t, 10, env.usage(t, "u1"))
}

func TestConcurrentFreeCallsNeverExceedLimit(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsage(t, "u1", 7)
	caller := env.caller(t, "u1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.gen.GenerateBlogTitle(context.Background(), caller, "t"); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 10, env.usage(t, "u1"))
}

func TestFailedOperationReleasesReservation(t *testing.T) {
	env := newTestEnv(t)
	env.text.err = errBoom
	caller := env.caller(t, "u1")

	_, err := env.gen.GenerateBlogTitle(context.Background(), caller, "t")
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.KindUpstream))
	assert.Equal(t, 502, errcode.From(err).Status())
	assert.Contains(t, errcode.From(err).Message, "boom")
	assert.Equal(t, 0, env.usage(t, "u1"))
	assert.Empty(t, env.creationsOf(t, "u1"))
}

func TestTextGenerationTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.text.block = true
	caller := env.caller(t, "u1")

	_, err := env.gen.GenerateArticle(context.Background(), caller, ArticleInput{Prompt: "x", Length: 10})
	require.Error(t, err)
	assert.Equal(t, 504, errcode.From(err).Status())
	assert.Equal(t, 0, env.usage(t, "u1"))
}

func TestShortArticleIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.text.out = "too short"
	caller := env.caller(t, "u1")

	_, err := env.gen.GenerateArticle(context.Background(), caller, ArticleInput{Prompt: "x", Length: 10})
	assert.True(t, errcode.Is(err, errcode.KindUpstream))
	assert.Equal(t, 0, env.usage(t, "u1"))
}

func TestArticleRequestShape(t *testing.T) {
	env := newTestEnv(t)
	caller := env.caller(t, "u1")

	_, err := env.gen.GenerateArticle(context.Background(), caller, ArticleInput{Prompt: "Go generics", Length: 801})
	require.NoError(t, err)
	assert.Equal(t, 1702, env.text.lastReq.MaxTokens)
	assert.Contains(t, env.text.lastReq.Prompt, `about "Go generics"`)
	assert.Contains(t, env.text.lastReq.Prompt, "approximately 801 words")

	list := env.creationsOf(t, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, "article", list[0].Type)
	assert.Equal(t, "Go generics", list[0].Prompt)
	assert.False(t, list[0].Publish)
}

func TestPremiumOnlyOperationsRejectFreeCallers(t *testing.T) {
	env := newTestEnv(t)
	caller := env.caller(t, "u1")
	ctx := context.Background()

	calls := map[string]func() (string, error){
		"image":      func() (string, error) { return env.gen.GenerateImage(ctx, caller, ImageInput{Prompt: "fox"}) },
		"background": func() (string, error) { return env.gen.RemoveBackground(ctx, caller, []byte("img")) },
		"object":     func() (string, error) { return env.gen.RemoveObject(ctx, caller, []byte("img"), "cat") },
		"resume":     func() (string, error) { return env.gen.ReviewResume(ctx, caller, []byte("%PDF")) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			_, err := call()
			require.Error(t, err)
			assert.Equal(t, 403, errcode.From(err).Status())
			assert.Equal(t, "This feature is only available for premium subscriptions.", errcode.From(err).Message)
		})
	}
	assert.Empty(t, env.host.uploads)
	assert.Equal(t, 0, env.text.calls)
	assert.Equal(t, 0, env.usage(t, "u1"))
}

func TestGenerateImageHonoursPublish(t *testing.T) {
	env := newTestEnv(t)
	caller := env.caller(t, "p1", "premium")

	url, err := env.gen.GenerateImage(context.Background(), caller, ImageInput{Prompt: "a fox", Publish: true})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.test/ai-generated-images/img1.png", url)
	assert.Equal(t, []provider.UploadOptions{{Folder: "ai-generated-images"}}, env.host.uploads)

	published, err := env.creations.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "a fox", published[0].Prompt)
	assert.Equal(t, url, published[0].Content)
}

func TestRemoveBackground(t *testing.T) {
	env := newTestEnv(t)
	caller := env.caller(t, "p1", "premium")

	url, err := env.gen.RemoveBackground(context.Background(), caller, []byte("img"))
	require.NoError(t, err)
	assert.Contains(t, url, "background-removal-images")
	assert.Equal(t, "e_background_removal", env.host.uploads[0].Transformation)

	list := env.creationsOf(t, "p1")
	require.Len(t, list, 1)
	assert.Equal(t, "background-removal", list[0].Type)
	assert.Equal(t, "Remove background from image", list[0].Prompt)
}

func TestRemoveObject(t *testing.T) {
	env := newTestEnv(t)
	caller := env.caller(t, "p1", "premium")

	url, err := env.gen.RemoveObject(context.Background(), caller, []byte("img"), "cat")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.test/e_gen_remove:prompt_cat/ai-generated-images/img1", url)

	list := env.creationsOf(t, "p1")
	require.Len(t, list, 1)
	assert.Equal(t, "image", list[0].Type)
	assert.Equal(t, "Removed cat from image", list[0].Prompt)
}

func TestUploadFailureIsUpstream(t *testing.T) {
	env := newTestEnv(t)
	env.host.err = errBoom
	caller := env.caller(t, "p1", "premium")

	_, err := env.gen.RemoveBackground(context.Background(), caller, []byte("img"))
	assert.Equal(t, 502, errcode.From(err).Status())
	assert.Empty(t, env.creationsOf(t, "p1"))
}

func TestReviewResume(t *testing.T) {
	env := newTestEnv(t)
	env.text.out = "1. Overall Impression ..."
	caller := env.caller(t, "p1", "premium")

	review, err := env.gen.ReviewResume(context.Background(), caller, []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "1. Overall Impression ...", review)
	assert.Equal(t, 1500, env.text.lastReq.MaxTokens)
	assert.True(t, strings.HasSuffix(env.text.lastReq.Prompt, "Jane Doe, Go engineer"))
	assert.Contains(t, env.text.lastReq.Prompt, "6. Overall Rating (out of 10)")

	list := env.creationsOf(t, "p1")
	require.Len(t, list, 1)
	assert.Equal(t, "resume-review", list[0].Type)
	assert.Equal(t, "Review The Uploaded Resume", list[0].Prompt)
}

func TestReviewResumeWithoutText(t *testing.T) {
	env := newTestEnv(t)
	env.pdf.err = provider.ErrNoText
	caller := env.caller(t, "p1", "premium")

	_, err := env.gen.ReviewResume(context.Background(), caller, []byte("%PDF"))
	require.Error(t, err)
	assert.Equal(t, 400, errcode.From(err).Status())
	assert.Equal(t, 0, env.text.calls)
}

func TestArticleMaxTokens(t *testing.T) {
	assert.Equal(t, 500, articleMaxTokens(0))
	assert.Equal(t, 502, articleMaxTokens(1))
	assert.Equal(t, 2000, articleMaxTokens(1000))
}
