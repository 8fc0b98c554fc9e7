package httpapi

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/server/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.wallet.Accounts(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(accounts))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.wallet.Account(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string          `json:"name"`
		Type          string          `json:"type"`
		Balance       decimal.Decimal `json:"balance"`
		Currency      string          `json:"currency"`
		AccountNumber string          `json:"accountNumber"`
		IsActive      bool            `json:"isActive"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := s.wallet.CreateAccount(r.Context(), userID(r.Context()), services.NewAccount{
		Name:          req.Name,
		Type:          req.Type,
		Balance:       req.Balance,
		Currency:      req.Currency,
		AccountNumber: req.AccountNumber,
		IsActive:      req.IsActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          *string          `json:"name"`
		Type          *string          `json:"type"`
		Balance       *decimal.Decimal `json:"balance"`
		Currency      *string          `json:"currency"`
		AccountNumber *string          `json:"accountNumber"`
		IsActive      *bool            `json:"isActive"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := s.wallet.UpdateAccount(r.Context(), userID(r.Context()), r.PathValue("id"),
		services.AccountPatch{
			Name:          req.Name,
			Type:          req.Type,
			Balance:       req.Balance,
			Currency:      req.Currency,
			AccountNumber: req.AccountNumber,
			IsActive:      req.IsActive,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.DeleteAccount(r.Context(), userID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	txs, err := s.wallet.Transactions(r.Context(), userID(r.Context()), accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID   string          `json:"accountId"`
		Type        string          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Date        time.Time       `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	tx, err := s.wallet.AddTransaction(r.Context(), userID(r.Context()), services.NewTransaction{
		AccountID:   req.AccountID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}
