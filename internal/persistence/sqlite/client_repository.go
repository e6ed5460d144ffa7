package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

const clientColumns = `id, owner_id, name, email, phone, type, status, created_at, updated_at`

// CreateClient inserts a client and its addresses in one transaction.
func (s *Store) CreateClient(ctx context.Context, client persistence.Client) error {
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			client.ID, client.OwnerID, client.Name, client.Email, client.Phone,
			client.Type, client.Status, encodeTime(client.CreatedAt), encodeTime(client.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: create client: %w", err)
		}
		return insertAddresses(ctx, tx, client.ID, client.Addresses)
	})
}

// UpdateClient rewrites a client record and replaces its address list.
func (s *Store) UpdateClient(ctx context.Context, client persistence.Client) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE clients SET name = ?, email = ?, phone = ?, type = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			client.Name, client.Email, client.Phone, client.Type, client.Status,
			encodeTime(time.Now()), client.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: update client: %w", err)
		}
		if err := ensureAffected(result); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM client_addresses WHERE client_id = ?`, client.ID); err != nil {
			return fmt.Errorf("sqlite: clear client addresses: %w", err)
		}
		return insertAddresses(ctx, tx, client.ID, client.Addresses)
	})
}

// GetClient loads one client with its addresses.
func (s *Store) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	client, err := scanClient(row)
	if err != nil {
		return persistence.Client{}, err
	}
	if client.Addresses, err = s.addressesFor(ctx, client.ID); err != nil {
		return persistence.Client{}, err
	}
	return client, nil
}

// ListClients returns the owner's clients ordered by name, addresses included.
func (s *Store) ListClients(ctx context.Context, ownerID string) ([]persistence.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id = ? ORDER BY name, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list clients: %w", err)
	}
	defer rows.Close()

	var clients []persistence.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].Addresses, err = s.addressesFor(ctx, clients[i].ID); err != nil {
			return nil, err
		}
	}
	return clients, nil
}

// DeleteClient removes a client; addresses, remarks and projects cascade.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete client: %w", err)
	}
	return ensureAffected(result)
}

func insertAddresses(ctx context.Context, tx *sql.Tx, clientID string, addresses []persistence.ClientAddress) error {
	for position, address := range addresses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO client_addresses (client_id, position, street, city, postal_code, access, has_key)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			clientID, position, address.Street, address.City, address.PostalCode, address.Access, address.HasKey,
		); err != nil {
			return fmt.Errorf("sqlite: insert client address: %w", err)
		}
	}
	return nil
}

func (s *Store) addressesFor(ctx context.Context, clientID string) ([]persistence.ClientAddress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT street, city, postal_code, access, has_key
		FROM client_addresses WHERE client_id = ? ORDER BY position`, clientID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list client addresses: %w", err)
	}
	defer rows.Close()

	var addresses []persistence.ClientAddress
	for rows.Next() {
		var address persistence.ClientAddress
		if err := rows.Scan(&address.Street, &address.City, &address.PostalCode, &address.Access, &address.HasKey); err != nil {
			return nil, fmt.Errorf("sqlite: scan client address: %w", err)
		}
		addresses = append(addresses, address)
	}
	return addresses, rows.Err()
}

func scanClient(row rowScanner) (persistence.Client, error) {
	var (
		client               persistence.Client
		createdAt, updatedAt string
	)
	err := row.Scan(
		&client.ID, &client.OwnerID, &client.Name, &client.Email, &client.Phone,
		&client.Type, &client.Status, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Client{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Client{}, fmt.Errorf("sqlite: scan client: %w", err)
	}
	if client.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Client{}, fmt.Errorf("sqlite: client created_at: %w", err)
	}
	if client.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Client{}, fmt.Errorf("sqlite: client updated_at: %w", err)
	}
	return client, nil
}
