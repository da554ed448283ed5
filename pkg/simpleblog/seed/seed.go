// Package seed loads demo blog data for development environments.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/auth"
)

const demoEmail = "john@example.com"

// Run loads the demo user, categories, tags and posts. It is a no-op
// when the demo user already exists, so it is safe to run on every
// startup.
func Run(ctx context.Context, svc simpleblog.Service, authSvc *auth.Service, repo simpleblog.Repository) error {
	if _, err := repo.GetUserByEmail(ctx, demoEmail); err == nil {
		return nil
	} else if !errors.Is(err, simpleblog.ErrUserNotFound) {
		return err
	}

	user, _, err := authSvc.Register(ctx, auth.RegisterRequest{
		Name:     "John Doe",
		Email:    demoEmail,
		Password: "password",
	})
	if err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	categories := map[string]*simpleblog.Category{}
	for _, req := range []simpleblog.CreateCategoryRequest{
		{Name: "Technology", Slug: "technology", Description: "Articles about technology trends and innovations"},
		{Name: "Programming", Slug: "programming", Description: "Programming tutorials and best practices"},
		{Name: "Design", Slug: "design", Description: "UI/UX design tips and inspiration"},
		{Name: "Business", Slug: "business", Description: "Business strategies and entrepreneurship"},
		{Name: "Lifestyle", Slug: "lifestyle", Description: "Lifestyle tips and personal development"},
	} {
		category, err := svc.CreateCategory(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create category %s: %w", req.Slug, err)
		}
		categories[req.Slug] = category
	}

	tags := map[string]*simpleblog.Tag{}
	for _, req := range []simpleblog.CreateTagRequest{
		{Name: "Go", Slug: "go"},
		{Name: "Chi", Slug: "chi"},
		{Name: "Docker", Slug: "docker"},
		{Name: "API", Slug: "api"},
		{Name: "REST", Slug: "rest"},
		{Name: "Tutorial", Slug: "tutorial"},
		{Name: "Backend", Slug: "backend"},
		{Name: "Database", Slug: "database"},
		{Name: "PostgreSQL", Slug: "postgresql"},
		{Name: "Development", Slug: "development"},
	} {
		tag, err := svc.CreateTag(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create tag %s: %w", req.Slug, err)
		}
		tags[req.Slug] = tag
	}

	now := time.Now()
	daysAgo := func(d int) *time.Time {
		t := now.AddDate(0, 0, -d)
		return &t
	}
	tagIDs := func(slugs ...string) []uuid.UUID {
		ids := make([]uuid.UUID, 0, len(slugs))
		for _, slug := range slugs {
			ids = append(ids, tags[slug].ID)
		}
		return ids
	}

	posts := []simpleblog.CreatePostRequest{
		{
			Title:       "Getting Started with Go Modules",
			Slug:        "getting-started-with-go-modules",
			Excerpt:     "Learn the basics of Go modules and start building amazing applications.",
			Content:     "Go makes dependency management straightforward with modules. In this tutorial, we will explore the key features of the module system and build a simple application from scratch. Go provides a clean syntax and powerful tooling like go mod tidy, semantic import versioning, and reproducible builds.",
			Image:       "go-modules.jpg",
			CategoryID:  categories["programming"].ID,
			Published:   true,
			PublishedAt: daysAgo(7),
			TagIDs:      tagIDs("go", "tutorial"),
		},
		{
			Title:       "Docker for Developers: A Complete Guide",
			Slug:        "docker-for-developers-complete-guide",
			Excerpt:     "Master Docker and containerization for modern application development.",
			Content:     "Docker has revolutionized the way we develop and deploy applications. By using containers, developers can ensure consistency across different environments. This guide covers everything from basic Docker commands to orchestrating multi-container applications with Docker Compose.",
			Image:       "docker-guide.jpg",
			CategoryID:  categories["technology"].ID,
			Published:   true,
			PublishedAt: daysAgo(5),
			TagIDs:      tagIDs("docker", "tutorial"),
		},
		{
			Title:       "Building RESTful APIs with Chi",
			Slug:        "building-restful-apis-with-chi",
			Excerpt:     "Create robust and scalable REST APIs using chi and best practices.",
			Content:     "REST APIs are the backbone of modern web applications. The chi router makes it easy to build clean and maintainable APIs in Go. In this article, we explore routing, middleware, request rendering, token authentication, and API versioning strategies.",
			Image:       "rest-api.jpg",
			CategoryID:  categories["programming"].ID,
			Published:   true,
			PublishedAt: daysAgo(3),
			TagIDs:      tagIDs("chi", "api", "rest"),
		},
		{
			Title:      "Modern UI Design Principles",
			Slug:       "modern-ui-design-principles",
			Excerpt:    "Explore the fundamental principles of modern user interface design.",
			Content:    "Great UI design is about more than just aesthetics. It's about creating intuitive, accessible, and delightful experiences for users. This article covers key principles like hierarchy, contrast, consistency, and feedback. We'll also look at popular design systems and tools.",
			CategoryID: categories["design"].ID,
			TagIDs:     tagIDs("tutorial"),
		},
	}

	for _, req := range posts {
		if _, err := svc.CreatePost(ctx, user, req); err != nil {
			return fmt.Errorf("failed to create post %s: %w", req.Slug, err)
		}
	}

	return nil
}
