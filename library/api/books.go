package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

func (s *Server) listBooks(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	books, count, err := s.store.ListBooks(librarystore.WithEventualConsistency(c.Request.Context()), page)
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, newListResponse(books, count, toBookResponse))
}

func (s *Server) getBook(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	book, err := s.store.GetBook(librarystore.WithEventualConsistency(c.Request.Context()), id)
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, toBookResponse(book))
}

func (s *Server) createBook(c *gin.Context) {
	var request bookRequest
	if err := bindJSON(c, &request); err != nil {
		s.abort(c, invalidInput(err))
		return
	}

	book, err := request.applyTo(librarystore.Book{}, false)
	if err != nil {
		s.abort(c, err)
		return
	}

	book, err = s.store.InsertBook(c.Request.Context(), book)
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusCreated, toBookResponse(book))
}

func (s *Server) replaceBook(c *gin.Context) {
	s.updateBook(c, false)
}

func (s *Server) patchBook(c *gin.Context) {
	s.updateBook(c, true)
}

func (s *Server) updateBook(c *gin.Context, partial bool) {
	id, err := parseID(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	var request bookRequest
	if err = bindJSON(c, &request); err != nil {
		s.abort(c, invalidInput(err))
		return
	}

	var updated librarystore.Book

	err = s.store.WithTx(c.Request.Context(), func(ctx context.Context, tx librarystore.Tx) error {
		book, txErr := tx.LockBook(ctx, id)
		if txErr != nil {
			return txErr
		}

		book, txErr = request.applyTo(book, partial)
		if txErr != nil {
			return txErr
		}

		updated, txErr = tx.UpdateBook(ctx, book)

		return txErr
	})
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, toBookResponse(updated))
}

func (s *Server) deleteBook(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	if err = s.store.DeleteBook(c.Request.Context(), id); err != nil {
		s.abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
