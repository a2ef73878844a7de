package model

import (
	baseModel "seafood_shop/pkg/model"
)

// 角色
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
)

// User 用户模型
// 门店下单自动建档的顾客没有邮箱，email 只在非空时唯一
type User struct {
	baseModel.BaseModel
	Email                  string `gorm:"type:varchar(255);index" json:"email"`
	Password               string `json:"-"` // 密码不返回给前端
	FullName               string `gorm:"type:varchar(255)" json:"fullName"`
	PhoneNumber            string `gorm:"type:varchar(32);index" json:"phoneNumber"`
	Address                string `json:"address"`
	Role                   string `gorm:"type:varchar(16);not null;default:customer" json:"role"`
	RewardPoints           int    `gorm:"not null;default:0" json:"rewardPoints"`
	Avatar                 string `json:"avatar"`
	IsNewUser              bool   `gorm:"not null;default:false" json:"isNewUser"`
	PasswordChangeRequired bool   `gorm:"not null;default:false" json:"passwordChangeRequired"`
	IsLocked               bool   `gorm:"not null;default:false" json:"isLocked"`
}

func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleAdmin || role == RoleStaff
}

// Summary 登录响应中的用户信息
type Summary struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	FullName               string `json:"fullName"`
	Avatar                 string `json:"avatar"`
	Role                   string `json:"role"`
	PasswordChangeRequired bool   `json:"passwordChangeRequired"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:                     u.ID,
		Email:                  u.Email,
		FullName:               u.FullName,
		Avatar:                 u.Avatar,
		Role:                   u.Role,
		PasswordChangeRequired: u.PasswordChangeRequired,
	}
}

// Anonymize 清除个人信息，保留记录以维持订单关联
func (u *User) Anonymize() {
	u.Email = "deleted_" + u.ID + "@example.com"
	u.FullName = "Deleted User"
	u.PhoneNumber = ""
	u.Address = ""
	u.Avatar = ""
	u.RewardPoints = 0
}
