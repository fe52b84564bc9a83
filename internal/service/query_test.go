package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ZeonEndOnly/Local-Photobank/internal/domain/model"
	"github.com/ZeonEndOnly/Local-Photobank/internal/repository"
)

// TestQueryService_ListMedia проверяет передачу параметров в repository
// и сборку представлений.
func TestQueryService_ListMedia(t *testing.T) {
	uploadedAt := time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)
	repo := &mockMediaRepo{
		listFn: func(_ context.Context, params repository.ListParams) ([]*model.Media, error) {
			if params.Search != "отпуск" {
				t.Errorf("Search = %q, ожидался %q", params.Search, "отпуск")
			}
			return []*model.Media{
				{
					ID:           "media-1",
					UserID:       "user-1",
					StorageKey:   "20250714120000_abc.jpg",
					OriginalName: "отпуск.jpg",
					ContentType:  "image/jpeg",
					Size:         1024,
					Folder:       "2025-07",
					UploadedAt:   uploadedAt,
				},
			}, nil
		},
	}

	svc := NewQueryService(repo, slog.Default())

	views, err := svc.ListMedia(context.Background(), "user-1", ListQuery{Search: "отпуск"})
	if err != nil {
		t.Fatalf("ListMedia ошибка: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views count = %d, ожидался 1", len(views))
	}

	v := views[0]
	if v.URL != "/api/media/media-1" {
		t.Errorf("URL = %q, ожидался /api/media/media-1", v.URL)
	}
	if !v.IsImage {
		t.Error("IsImage = false, ожидался true для image/jpeg")
	}
}

// TestQueryService_ListMedia_VirtualFolder проверяет, что папка
// uploaded_by_you превращается в предикат владения, а не фильтр по folder.
func TestQueryService_ListMedia_VirtualFolder(t *testing.T) {
	repo := &mockMediaRepo{
		listFn: func(_ context.Context, params repository.ListParams) ([]*model.Media, error) {
			if params.OwnerID != "user-7" {
				t.Errorf("OwnerID = %q, ожидался user-7", params.OwnerID)
			}
			if params.Folder != "" {
				t.Errorf("Folder = %q, для виртуальной папки должен быть пуст", params.Folder)
			}
			return nil, nil
		},
	}

	svc := NewQueryService(repo, slog.Default())

	if _, err := svc.ListMedia(context.Background(), "user-7", ListQuery{Folder: FolderUploadedByYou}); err != nil {
		t.Fatalf("ListMedia ошибка: %v", err)
	}
}

// TestQueryService_ListMedia_MonthFolder проверяет фильтр по метке месяца.
func TestQueryService_ListMedia_MonthFolder(t *testing.T) {
	repo := &mockMediaRepo{
		listFn: func(_ context.Context, params repository.ListParams) ([]*model.Media, error) {
			if params.Folder != "2025-03" {
				t.Errorf("Folder = %q, ожидался 2025-03", params.Folder)
			}
			if params.OwnerID != "" {
				t.Errorf("OwnerID = %q, для метки месяца должен быть пуст", params.OwnerID)
			}
			return nil, nil
		},
	}

	svc := NewQueryService(repo, slog.Default())

	if _, err := svc.ListMedia(context.Background(), "user-1", ListQuery{Folder: "2025-03"}); err != nil {
		t.Fatalf("ListMedia ошибка: %v", err)
	}
}

// TestCoerceSortField проверяет приведение поля сортировки:
// неизвестные значения молча заменяются на uploaded_at.
func TestCoerceSortField(t *testing.T) {
	cases := []struct {
		in   string
		want repository.SortField
	}{
		{"uploaded_at", repository.SortUploadedAt},
		{"original_name", repository.SortOriginalName},
		{"size", repository.SortSize},
		{"", repository.SortUploadedAt},
		{"id; DROP TABLE media", repository.SortUploadedAt},
		{"UPLOADED_AT", repository.SortUploadedAt},
	}

	for _, c := range cases {
		if got := coerceSortField(c.in); got != c.want {
			t.Errorf("coerceSortField(%q) = %q, ожидался %q", c.in, got, c.want)
		}
	}
}

// TestCoerceSortOrder проверяет приведение направления: всё кроме
// asc (в любом регистре) превращается в DESC.
func TestCoerceSortOrder(t *testing.T) {
	cases := []struct {
		in   string
		want repository.SortOrder
	}{
		{"asc", repository.OrderAsc},
		{"ASC", repository.OrderAsc},
		{"desc", repository.OrderDesc},
		{"", repository.OrderDesc},
		{"random", repository.OrderDesc},
	}

	for _, c := range cases {
		if got := coerceSortOrder(c.in); got != c.want {
			t.Errorf("coerceSortOrder(%q) = %q, ожидался %q", c.in, got, c.want)
		}
	}
}

// TestQueryService_Folders проверяет сборку списка папок.
func TestQueryService_Folders(t *testing.T) {
	repo := &mockMediaRepo{
		distinctFoldersFn: func(_ context.Context) ([]string, error) {
			return []string{"2025-08", "2025-07", "2024-12"}, nil
		},
	}

	svc := NewQueryService(repo, slog.Default())

	folders, err := svc.Folders(context.Background())
	if err != nil {
		t.Fatalf("Folders ошибка: %v", err)
	}

	if len(folders.Special) != 1 || folders.Special[0] != FolderUploadedByYou {
		t.Errorf("Special = %v, ожидался [%s]", folders.Special, FolderUploadedByYou)
	}
	if len(folders.Months) != 3 {
		t.Errorf("Months count = %d, ожидался 3", len(folders.Months))
	}
}

// TestQueryService_DiskUsage проверяет форматирование суммарного размера.
func TestQueryService_DiskUsage(t *testing.T) {
	repo := &mockMediaRepo{
		totalSizeFn: func(_ context.Context) (int64, error) {
			return 3 << 30, nil // 3 GiB
		},
	}

	svc := NewQueryService(repo, slog.Default())

	usage, err := svc.DiskUsage(context.Background())
	if err != nil {
		t.Fatalf("DiskUsage ошибка: %v", err)
	}

	if usage.TotalSize != 3<<30 {
		t.Errorf("TotalSize = %d, ожидался %d", usage.TotalSize, int64(3<<30))
	}
	if usage.TotalSizeFormatted != "3.00 GB" {
		t.Errorf("TotalSizeFormatted = %q, ожидался %q", usage.TotalSizeFormatted, "3.00 GB")
	}
}
