package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotAuthenticated   = errors.New("Vous devez être connecté pour commander")
	ErrEmptyCart          = errors.New("Votre panier est vide")
	ErrProductUnavailable = errors.New("produit indisponible")
	ErrInsufficientStock  = errors.New("Stock insuffisant pour cette quantité")
	ErrInvalidQuantity    = errors.New("La quantité doit être au moins 1")
	ErrLineNotFound       = errors.New("Ce produit n'est pas dans le panier")
	ErrProductNotFound    = errors.New("Produit introuvable")
	ErrOrderNotFound      = errors.New("Commande introuvable")
	ErrInvalidStatus      = errors.New("Statut de commande invalide")
	ErrEmailTaken         = errors.New("Cet email est déjà utilisé")
	ErrInvalidCredentials = errors.New("Email ou mot de passe incorrect")
	ErrInvalidAdminCode   = errors.New("Code administrateur incorrect")
	ErrCategoryExists     = errors.New("Cette catégorie existe déjà")
	ErrCategoryNotFound   = errors.New("Catégorie introuvable")
	ErrEmptyMessage       = errors.New("Le message ne peut pas être vide")
	ErrClientNotFound     = errors.New("Client introuvable")
)

// UnavailableError names the product that blocked an add-to-cart or a
// checkout. It matches ErrProductUnavailable with errors.Is.
type UnavailableError struct {
	ProductID   string
	ProductName string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("Le produit %q n'est plus disponible en quantité suffisante", e.ProductName)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrProductUnavailable }

func unavailable(id, name string) error {
	return &UnavailableError{ProductID: id, ProductName: name}
}

// ValidationError carries field-level messages for a rejected input.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + v[k]
	}
	return "validation: " + strings.Join(parts, "; ")
}
