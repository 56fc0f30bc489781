package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/google/uuid"
)

// lookup finds the item named by ref: a 1-based position in the last
// listing, a full id, or an exact name.
func lookup[T any](items []T, ref string, id func(T) uuid.UUID, name func(T) string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, errUsage
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(items) {
			return zero, errNotFound
		}
		return items[n-1], nil
	}
	if u, err := uuid.Parse(ref); err == nil {
		for _, it := range items {
			if id(it) == u {
				return it, nil
			}
		}
		return zero, errNotFound
	}
	for _, it := range items {
		if name(it) == ref {
			return it, nil
		}
	}
	return zero, errNotFound
}

// Docs lists the uploaded documents (the sources of every chat).
func (a *App) Docs(ctx context.Context) error {
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	if len(me.Documents) == 0 {
		fmt.Fprintln(a.out, "No documents yet. Upload one with: upload <file>")
		return nil
	}
	for i, d := range me.Documents {
		fmt.Fprintf(a.out, "%2d. %s  [%s, %s]\n", i+1, d.Name, d.FileType, FormatFileSize(d.Size))
	}
	return nil
}

// Upload validates and sends each file. A failing file is reported and does
// not stop the rest.
func (a *App) Upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: upload <file>... (accepted: %s)", errUsage, strings.Join(models.AcceptedExtensions(), ", "))
	}
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range paths {
		f, err := a.documentService.Prepare(p)
		if err != nil {
			fmt.Fprintln(a.out, userMessage(err))
			errs = append(errs, err)
			continue
		}
		doc, err := a.documentService.Upload(ctx, me.ID, f)
		if err != nil {
			fmt.Fprintln(a.out, userMessage(err))
			errs = append(errs, err)
			continue
		}

		msg := fmt.Sprintf("Uploaded %s (%s, %s", doc.Name, doc.FileType, FormatFileSize(doc.Size))
		if f.Pages > 0 {
			msg += fmt.Sprintf(", %d pages", f.Pages)
		}
		fmt.Fprintln(a.out, msg+")")
		a.logger.Info(ctx, "document uploaded", "name", doc.Name, "id", doc.ID)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d uploads failed", len(errs), len(paths))
	}
	return nil
}

func (a *App) RemoveDocument(ctx context.Context, ref string) error {
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	doc, err := lookup(me.Documents, ref,
		func(d models.Document) uuid.UUID { return d.ID },
		func(d models.Document) string { return d.Name })
	if err != nil {
		if errors.Is(err, errUsage) {
			return fmt.Errorf("%w: rmdoc <n|id|name>", errUsage)
		}
		return err
	}

	if err := a.documentService.Delete(ctx, me.ID, doc.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", doc.Name)
	return nil
}
