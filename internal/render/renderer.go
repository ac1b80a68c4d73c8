package render

import "context"

type Renderer interface {
	RenderHome(ctx context.Context, page HomePage) ([]byte, error)
	RenderStatic(ctx context.Context, page StaticPage) ([]byte, error)
	RenderListing(ctx context.Context, page ListingPage) ([]byte, error)
	RenderArticle(ctx context.Context, page ArticlePage) ([]byte, error)
	RenderIssues(ctx context.Context, page IssuesPage) ([]byte, error)
	RenderIssue(ctx context.Context, page IssuePage) ([]byte, error)
	RenderNotFound(ctx context.Context, page NotFoundPage) ([]byte, error)
	RenderError(ctx context.Context, page ErrorPage) ([]byte, error)

	RenderLogin(ctx context.Context, page LoginPage) ([]byte, error)
	RenderDashboard(ctx context.Context, page DashboardPage) ([]byte, error)
	RenderEditor(ctx context.Context, page EditorPage) ([]byte, error)
}
