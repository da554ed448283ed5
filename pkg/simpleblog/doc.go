// Package simpleblog provides a blog publishing backend as a reusable
// library: CRUD over posts, categories and tags with owner-only
// mutation of posts.
//
// The package is organized around a Service interface backed by a
// pluggable Repository (see repo/memory and repo/postgres) and an
// optional BlobStore for post images (see storage). HTTP handlers live
// in the api subpackage, token authentication in auth, and environment
// driven wiring in config.
//
// Basic usage:
//
//	repo := memory.New()
//	svc, err := simpleblog.New(simpleblog.WithRepository(repo))
//	if err != nil {
//		log.Fatal(err)
//	}
//	category, err := svc.CreateCategory(ctx, simpleblog.CreateCategoryRequest{
//		Name: "Technology",
//		Slug: "technology",
//	})
package simpleblog
