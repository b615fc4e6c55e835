package models

import (
	"encoding/json"
	"time"
)

// AssetType is the kind of hardware an asset represents.
type AssetType string

const (
	TypePC          AssetType = "PC"
	TypeLaptop      AssetType = "Laptop"
	TypeVDI         AssetType = "VDI"
	TypeMonitor     AssetType = "Monitor"
	TypeCPU         AssetType = "CPU"
	TypeVDIReceiver AssetType = "VDI Receiver"
	TypePrinter     AssetType = "Printer"
	TypeRouter      AssetType = "Router"
	TypeSwitch      AssetType = "Switch"
	TypeIPPhone     AssetType = "IP Phone"
)

// ValidAssetTypes is the set of allowed asset type values.
var ValidAssetTypes = map[AssetType]bool{
	TypePC:          true,
	TypeLaptop:      true,
	TypeVDI:         true,
	TypeMonitor:     true,
	TypeCPU:         true,
	TypeVDIReceiver: true,
	TypePrinter:     true,
	TypeRouter:      true,
	TypeSwitch:      true,
	TypeIPPhone:     true,
}

// AssetStatus is the custodial state of an asset.
type AssetStatus string

const (
	StatusActive           AssetStatus = "Active"
	StatusInStore          AssetStatus = "In Store"
	StatusUnderMaintenance AssetStatus = "Under Maintenance"
	StatusObsolete         AssetStatus = "Obsolete"
	StatusDisposed         AssetStatus = "Disposed"
)

// ValidAssetStatuses is the set of allowed asset status values.
var ValidAssetStatuses = map[AssetStatus]bool{
	StatusActive:           true,
	StatusInStore:          true,
	StatusUnderMaintenance: true,
	StatusObsolete:         true,
	StatusDisposed:         true,
}

// ICT custody. Newly registered and surrendered assets are held here.
const (
	CustodianHolder     = "ICT Manager"
	CustodianLocation   = "ICT Store"
	CustodianDepartment = "ICT"
)

// Asset is a physical item in the inventory.
type Asset struct {
	ID            string      `json:"id"`
	Type          AssetType   `json:"asset_type"`
	SerialNumber  string      `json:"serial_number"`
	Brand         string      `json:"brand"`
	Model         string      `json:"model"`
	Holder        string      `json:"holder"`
	DomainAccount string      `json:"domain_account,omitempty"`
	Location      string      `json:"location"`
	Department    string      `json:"department"`
	Section       string      `json:"section,omitempty"`
	Status        AssetStatus `json:"status"`
	PairID        string      `json:"pair_id,omitempty"`
	Version       int64       `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// PairType identifies which kind of unit a pair forms.
type PairType string

const (
	PairPC  PairType = "PC"
	PairVDI PairType = "VDI"
)

// ValidPairTypes is the set of allowed pair type values.
var ValidPairTypes = map[PairType]bool{
	PairPC:  true,
	PairVDI: true,
}

// PrimaryType returns the asset type that heads a pair of this type.
func (p PairType) PrimaryType() AssetType {
	if p == PairVDI {
		return TypeVDIReceiver
	}
	return TypeCPU
}

// AssetPair links a CPU or VDI Receiver with a Monitor deployed as one unit.
type AssetPair struct {
	ID                string    `json:"id"`
	PrimaryAssetID    string    `json:"primary_asset_id"`
	SecondaryAssetID  string    `json:"secondary_asset_id"`
	PairType          PairType  `json:"pair_type"`
	IsDeployed        bool      `json:"is_deployed"`
	CurrentHolder     string    `json:"current_holder,omitempty"`
	CurrentAccount    string    `json:"current_domain_account,omitempty"`
	CurrentLocation   string    `json:"current_location,omitempty"`
	CurrentDepartment string    `json:"current_department,omitempty"`
	CurrentSection    string    `json:"current_section,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ActionType names a lifecycle movement.
type ActionType string

const (
	ActionNewDeployment     ActionType = "New Deployment"
	ActionRedeployment      ActionType = "Redeployment"
	ActionRelocation        ActionType = "Relocation"
	ActionSurrender         ActionType = "Surrender"
	ActionChangeOfOwnership ActionType = "Change of Ownership"
	ActionExit              ActionType = "Exit"
)

// ValidActionTypes is the set of allowed lifecycle action types.
var ValidActionTypes = map[ActionType]bool{
	ActionNewDeployment:     true,
	ActionRedeployment:      true,
	ActionRelocation:        true,
	ActionSurrender:         true,
	ActionChangeOfOwnership: true,
	ActionExit:              true,
}

// DeploymentType says whether an action moves a pair or a single asset.
type DeploymentType string

const (
	DeploymentPair       DeploymentType = "Pair"
	DeploymentIndividual DeploymentType = "Individual"
)

// ActionStatus is the state of a lifecycle request.
type ActionStatus string

const (
	ActionPending   ActionStatus = "Pending"
	ActionCompleted ActionStatus = "Completed"
)

// Snapshot is the ownership and placement of an asset or pair at one point.
type Snapshot struct {
	Holder        string `json:"holder"`
	DomainAccount string `json:"domain_account,omitempty"`
	Location      string `json:"location"`
	Department    string `json:"department"`
	Section       string `json:"section,omitempty"`
}

// CustodianSnapshot is the ICT custody placement.
func CustodianSnapshot() Snapshot {
	return Snapshot{
		Holder:     CustodianHolder,
		Location:   CustodianLocation,
		Department: CustodianDepartment,
	}
}

// SnapshotOf returns the current placement of a.
func SnapshotOf(a *Asset) Snapshot {
	return Snapshot{
		Holder:        a.Holder,
		DomainAccount: a.DomainAccount,
		Location:      a.Location,
		Department:    a.Department,
		Section:       a.Section,
	}
}

// LifecycleAction is a recorded request to move an asset or pair.
type LifecycleAction struct {
	ID               string         `json:"id"`
	ActionType       ActionType     `json:"action_type"`
	DeploymentType   DeploymentType `json:"deployment_type"`
	PrimarySerial    string         `json:"primary_asset_serial"`
	SecondarySerial  string         `json:"secondary_asset_serial,omitempty"`
	PairType         PairType       `json:"asset_pair_type,omitempty"`
	PairID           string         `json:"pair_id,omitempty"`
	From             Snapshot       `json:"from"`
	To               Snapshot       `json:"to"`
	RequestedBy      string         `json:"requested_by"`
	Status           ActionStatus   `json:"status"`
	RequestDate      time.Time      `json:"request_date"`
	CompletionDate   *time.Time     `json:"completion_date,omitempty"`
	Comments         string         `json:"comments,omitempty"`
	MovementFormPath string         `json:"movement_form_path,omitempty"`
}

// TicketPriority ranks a maintenance ticket.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "Low"
	PriorityMedium   TicketPriority = "Medium"
	PriorityHigh     TicketPriority = "High"
	PriorityCritical TicketPriority = "Critical"
)

// ValidPriorities is the set of allowed ticket priorities.
var ValidPriorities = map[TicketPriority]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

// TicketStatus is the progress of a maintenance ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

// ValidTicketStatuses is the set of allowed ticket statuses.
var ValidTicketStatuses = map[TicketStatus]bool{
	TicketOpen:       true,
	TicketInProgress: true,
	TicketResolved:   true,
	TicketClosed:     true,
}

// TicketCategory classifies the fault behind a ticket.
type TicketCategory string

const (
	CategoryHardware    TicketCategory = "Hardware"
	CategorySoftware    TicketCategory = "Software"
	CategoryNetwork     TicketCategory = "Network"
	CategoryReplacement TicketCategory = "Replacement"
)

// ValidCategories is the set of allowed ticket categories.
var ValidCategories = map[TicketCategory]bool{
	CategoryHardware:    true,
	CategorySoftware:    true,
	CategoryNetwork:     true,
	CategoryReplacement: true,
}

// MaintenanceTicket is a repair record against one asset.
type MaintenanceTicket struct {
	ID                  string         `json:"id"`
	AssetID             string         `json:"asset_id"`
	AssetSerial         string         `json:"asset_serial"`
	AssetType           AssetType      `json:"asset_type"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	Category            TicketCategory `json:"category"`
	Priority            TicketPriority `json:"priority"`
	Status              TicketStatus   `json:"status"`
	ReportedBy          string         `json:"reported_by"`
	AssignedTo          string         `json:"assigned_to"`
	DateReceived        time.Time      `json:"date_received"`
	DateReturned        *time.Time     `json:"date_returned,omitempty"`
	Resolution          string         `json:"resolution,omitempty"`
	Cost                float64        `json:"cost,omitempty"`
	PriorAssetStatus    AssetStatus    `json:"prior_asset_status"`
	IsObsolete          bool           `json:"is_obsolete"`
	ObsoleteReason      string         `json:"obsolete_reason,omitempty"`
	ObsoleteDate        *time.Time     `json:"obsolete_date,omitempty"`
	RequiresReplacement bool           `json:"requires_replacement"`
	ReplacementSerial   string         `json:"replacement_asset_serial,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// ReplacementDeployed is the only state a replacement is recorded in; the
// replacement asset is deployed in the same transaction that writes the row.
const ReplacementDeployed = "Deployed"

// AssetReplacement links an obsolete asset to the asset that replaced it.
type AssetReplacement struct {
	ID                 string    `json:"id"`
	OriginalSerial     string    `json:"original_asset_serial"`
	ReplacementSerial  string    `json:"replacement_asset_serial"`
	TicketID           string    `json:"maintenance_ticket_id"`
	Reason             string    `json:"replacement_reason"`
	ReplacementDate    time.Time `json:"replacement_date"`
	DeployedToHolder   string    `json:"deployed_to_user,omitempty"`
	DeployedLocation   string    `json:"deployed_location,omitempty"`
	DeployedDepartment string    `json:"deployed_department,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AuditLog is one append-only record of a state change.
type AuditLog struct {
	ID          string          `json:"id"`
	AssetSerial string          `json:"asset_serial"`
	PairID      string          `json:"pair_id,omitempty"`
	Action      string          `json:"action"`
	PerformedBy string          `json:"performed_by"`
	Timestamp   time.Time       `json:"timestamp"`
	Details     string          `json:"details"`
	OldValues   json.RawMessage `json:"old_values,omitempty"`
	NewValues   json.RawMessage `json:"new_values,omitempty"`
}

// Role is an operator's permission level.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleICTOfficer Role = "ICT Officer"
	RoleHOD        Role = "Department HOD"
	RoleEndUser    Role = "End User"
)

// ValidRoles is the set of allowed user roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleICTOfficer: true,
	RoleHOD:        true,
	RoleEndUser:    true,
}

// User is an operator who can sign in.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	PersonalNumber string     `json:"personal_number"`
	PasswordHash   string     `json:"-"`
	Role           Role       `json:"role"`
	Department     string     `json:"department"`
	IsActive       bool       `json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Holder is a person assets can be deployed to.
type Holder struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	DomainAccount string    `json:"domain_account"`
	Location      string    `json:"location"`
	Department    string    `json:"department"`
	Section       string    `json:"section,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DashboardStats summarises the inventory for the landing page.
type DashboardStats struct {
	TotalAssets      int         `json:"total_assets"`
	ActiveAssets     int         `json:"active_assets"`
	InStore          int         `json:"in_store"`
	InMaintenance    int         `json:"in_maintenance"`
	ObsoleteAssets   int         `json:"obsolete_assets"`
	DisposedAssets   int         `json:"disposed_assets"`
	PCAssets         int         `json:"pc_assets"`
	VDIAssets        int         `json:"vdi_assets"`
	TotalPairs       int         `json:"total_pairs"`
	DeployedPairs    int         `json:"deployed_pairs"`
	OpenTickets      int         `json:"open_tickets"`
	RecentActivities []*AuditLog `json:"recent_activities"`
}
