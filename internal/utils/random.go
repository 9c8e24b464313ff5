package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	mrand "math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[mrand.Intn(len(commonSurnames))]
	nameLength := mrand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[mrand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateEmailLocalPart 用姓名的拼音加几位随机数字作为邮箱前缀
func GenerateEmailLocalPart(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	localPart := strings.Join(pinyinArray, "")

	digitsLength := mrand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		localPart += string(digits[mrand.Intn(len(digits))])
	}

	return localPart
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	name := GenerateRandomChineseName()
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		PasswordHash: string(passwordHash),
		Email:        GenerateEmailLocalPart(name) + "@" + emailDomainName,
		Role:         domain.RoleStaff,
	}

	return user, nil
}

// GenerateRandomOTP 生成 6 位数字验证码
func GenerateRandomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateInvitationToken 生成 32 字节随机数的十六进制表示
func GenerateInvitationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandomSubset 使用 Fisher-Yates 洗牌算法生成 1..lastDay 的一个随机子集，可能为空
func GenerateRandomSubset(lastDay int) []int {
	days := make([]int, lastDay)
	for i := range days {
		days[i] = i + 1
	}

	for i := len(days) - 1; i > 0; i-- {
		j := mrand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	return days[:mrand.Intn(len(days)+1)]
}
